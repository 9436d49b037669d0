package requirement

// Requirement is the active document type and what it implies for the upload
type Requirement struct {
	Key       string `json:"key"`
	Label     string `json:"label"`
	SlotLimit int    `json:"slot_limit"`
	Endpoint  string `json:"endpoint"`
}

// Selector tracks the dropdown selection over a caller-supplied option table
type Selector struct {
	table     Table
	endpoints Endpoints
	policy    Policy
	blacklist []string
	current   Requirement
	selected  bool
}

// NewSelector creates a selector. A nil endpoints table or policy falls back to the defaults.
func NewSelector(table Table, endpoints Endpoints, policy Policy, blacklist ...string) *Selector {
	if endpoints == nil {
		endpoints = DefaultEndpoints()
	}
	if policy == nil {
		policy = DefaultPolicy()
	}
	s := &Selector{
		table:     table,
		endpoints: endpoints,
		policy:    policy,
		blacklist: blacklist,
	}
	s.clear(endpoints["payslip"])
	return s
}

func (s *Selector) clear(endpoint string) {
	s.selected = false
	s.current = Requirement{
		Label:     PlaceholderLabel,
		SlotLimit: PlaceholderLimit,
		Endpoint:  endpoint,
	}
}

// Options returns the current option table
func (s *Selector) Options() Table {
	return append(Table(nil), s.table...)
}

// Current returns the active requirement and whether one has been selected
func (s *Selector) Current() (Requirement, bool) {
	return s.current, s.selected
}

// Select activates the option with the given key. Unknown keys leave the selection unchanged.
func (s *Selector) Select(key string) (Requirement, bool) {
	opt, ok := s.table.Lookup(key)
	if !ok {
		return s.current, false
	}
	s.current = Requirement{
		Key:       opt.Key,
		Label:     opt.Label,
		SlotLimit: opt.Limit,
		Endpoint:  s.endpoints[opt.Key],
	}
	s.selected = true
	return s.current, true
}

// SetOptions replaces the option table, dropping blacklisted keys.
// A selection whose key survives is kept; otherwise the placeholder state returns.
func (s *Selector) SetOptions(table Table) {
	filtered := make(Table, 0, len(table))
	for _, o := range table {
		if !s.blacklisted(o.Key) {
			filtered = append(filtered, o)
		}
	}
	s.table = filtered

	if s.selected {
		if _, ok := s.Select(s.current.Key); !ok {
			s.clear(s.current.Endpoint)
		}
	}
}

// ApplyEmployment derives the option table from an employment status
func (s *Selector) ApplyEmployment(status string) (Requirement, error) {
	table, endpointKey, err := s.policy.OptionsFor(status)
	if err != nil {
		return s.current, err
	}
	s.SetOptions(table)
	if !s.selected {
		s.current.Endpoint = s.endpoints[endpointKey]
	}
	return s.current, nil
}

func (s *Selector) blacklisted(key string) bool {
	for _, b := range s.blacklist {
		if b != "" && b == key {
			return true
		}
	}
	return false
}
