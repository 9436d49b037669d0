package intake

// Mutation names the kind of change a SlotStore reports to its hook
type Mutation int

const (
	MutationAdmit Mutation = iota
	MutationRemove
	MutationReset
	MutationPassword
	MutationProcessed
)

// String returns a string representation of the Mutation
func (m Mutation) String() string {
	switch m {
	case MutationAdmit:
		return "admit"
	case MutationRemove:
		return "remove"
	case MutationReset:
		return "reset"
	case MutationPassword:
		return "password"
	case MutationProcessed:
		return "processed"
	default:
		return "unknown"
	}
}

// SlotStore owns the ordered collection of accepted files.
// It is not safe for concurrent use; the Controller loop is its only writer.
type SlotStore struct {
	slots    []FileSlot
	onMutate func(Mutation, string)
}

// NewSlotStore creates an empty store. onMutate, when non-nil, is called
// synchronously after every mutation with the kind and the affected slot name.
func NewSlotStore(onMutate func(Mutation, string)) *SlotStore {
	return &SlotStore{onMutate: onMutate}
}

func (s *SlotStore) notify(m Mutation, name string) {
	if s.onMutate != nil {
		s.onMutate(m, name)
	}
}

// Admit appends a slot with an empty password
func (s *SlotStore) Admit(f FileDescriptor, isEncrypted bool, base64 string) {
	s.slots = append(s.slots, FileSlot{
		Name:        f.Name,
		MimeType:    f.MimeType,
		SizeBytes:   f.Size,
		RawBytes:    f.Data,
		Base64:      base64,
		IsEncrypted: isEncrypted,
	})
	s.notify(MutationAdmit, f.Name)
}

// Remove deletes the named slot and its password, keeping the others in order
func (s *SlotStore) Remove(name string) bool {
	i := s.index(name)
	if i < 0 {
		return false
	}
	s.slots = append(s.slots[:i], s.slots[i+1:]...)
	s.notify(MutationRemove, name)
	return true
}

// Reset clears every slot
func (s *SlotStore) Reset() {
	s.slots = nil
	s.notify(MutationReset, "")
}

// SetPassword changes one slot's password
func (s *SlotStore) SetPassword(name, value string) bool {
	i := s.index(name)
	if i < 0 {
		return false
	}
	s.slots[i].Password = value
	s.notify(MutationPassword, name)
	return true
}

// MarkProcessed flags a slot as sent to the verification service
func (s *SlotStore) MarkProcessed(name string) bool {
	i := s.index(name)
	if i < 0 {
		return false
	}
	s.slots[i].Processed = true
	s.notify(MutationProcessed, name)
	return true
}

// Count returns the number of live slots
func (s *SlotStore) Count() int {
	return len(s.slots)
}

// Names returns the slot names in order
func (s *SlotStore) Names() []string {
	names := make([]string, len(s.slots))
	for i, slot := range s.slots {
		names[i] = slot.Name
	}
	return names
}

// Sizes returns the slot sizes in order
func (s *SlotStore) Sizes() []int64 {
	sizes := make([]int64, len(s.slots))
	for i, slot := range s.slots {
		sizes[i] = slot.SizeBytes
	}
	return sizes
}

// Passwords returns the passwords in slot order; unencrypted slots hold ""
func (s *SlotStore) Passwords() []string {
	pws := make([]string, len(s.slots))
	for i, slot := range s.slots {
		pws[i] = slot.Password
	}
	return pws
}

// Slots returns a copy of the slots in order
func (s *SlotStore) Slots() []FileSlot {
	out := make([]FileSlot, len(s.slots))
	copy(out, s.slots)
	return out
}

// Get returns the named slot
func (s *SlotStore) Get(name string) (FileSlot, bool) {
	i := s.index(name)
	if i < 0 {
		return FileSlot{}, false
	}
	return s.slots[i], true
}

// Ordinal returns the 1-based position of the named slot, or 0
func (s *SlotStore) Ordinal(name string) int {
	return s.index(name) + 1
}

func (s *SlotStore) index(name string) int {
	for i, slot := range s.slots {
		if slot.Name == name {
			return i
		}
	}
	return -1
}
