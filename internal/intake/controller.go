package intake

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"log"
	"strconv"
	"strings"
	"sync/atomic"

	"github.com/a3tai/doc-intake/internal/requirement"
)

// ErrAlreadyRunning is returned when Run is called on a controller whose loop is active
var ErrAlreadyRunning = errors.New("intake controller already running")

// Option configures a Controller
type Option func(*Controller)

// WithLogger sets the logger used for debug output
func WithLogger(l *log.Logger) Option {
	return func(c *Controller) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithSelector attaches a requirement selector; its current selection sets the slot limit
func WithSelector(s *requirement.Selector) Option {
	return func(c *Controller) { c.selector = s }
}

// WithChangeListener registers a ChangeEvent listener.
// Listeners run on the controller loop and must not call back into the controller synchronously.
func WithChangeListener(fn func(ChangeEvent)) Option {
	return func(c *Controller) { c.onChange = append(c.onChange, fn) }
}

// WithPasswordListener registers a PasswordEvent listener, under the same rules as WithChangeListener
func WithPasswordListener(fn func(PasswordEvent)) Option {
	return func(c *Controller) { c.onPassword = append(c.onPassword, fn) }
}

// Controller orchestrates one intake session. All state is owned by a single
// loop goroutine; every public method posts a closure to that loop, so slot
// state needs no locks and each mutation sees the latest snapshot.
type Controller struct {
	config     Configuration
	validator  *Validator
	normalizer *ImageNormalizer
	detector   *EncryptionDetector
	merger     *SummaryMerger
	store      *SlotStore
	selector   *requirement.Selector
	logger     *log.Logger

	baseSlots  int
	results    []ValidationResult
	cleared    map[string]bool
	reserved   map[string]struct{}
	generation int
	warning    string
	state      AggregateState

	onChange   []func(ChangeEvent)
	onPassword []func(PasswordEvent)

	inbox   chan func()
	quit    chan struct{}
	done    chan struct{}
	running atomic.Bool
	stopped atomic.Bool
}

// NewController creates a controller for the given configuration. Call Start
// or Run before using it.
func NewController(config Configuration, opts ...Option) *Controller {
	c := &Controller{
		normalizer: NewImageNormalizer(),
		detector:   NewEncryptionDetector(),
		merger:     NewSummaryMerger(),
		logger:     log.New(io.Discard, "", 0),
		cleared:    make(map[string]bool),
		reserved:   make(map[string]struct{}),
		inbox:      make(chan func()),
		quit:       make(chan struct{}),
		done:       make(chan struct{}),
	}
	for _, opt := range opts {
		opt(c)
	}
	// the configured limit applies whenever no requirement is selected
	c.baseSlots = config.MaxSlots
	if c.selector != nil {
		if req, ok := c.selector.Current(); ok {
			config = config.WithMaxSlots(req.SlotLimit)
		}
	}
	c.setConfiguration(config)
	c.store = NewSlotStore(c.handleMutation)
	c.recompute()
	return c
}

// Start runs the loop in a new goroutine
func (c *Controller) Start() {
	go func() {
		_ = c.Run(context.Background())
	}()
}

// Run processes events until ctx is cancelled or Stop is called
func (c *Controller) Run(ctx context.Context) error {
	if !c.running.CompareAndSwap(false, true) {
		return ErrAlreadyRunning
	}
	defer close(c.done)

	for {
		select {
		case fn := <-c.inbox:
			fn()
		case <-c.quit:
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// Stop ends the loop and waits for it to exit
func (c *Controller) Stop() {
	if c.stopped.CompareAndSwap(false, true) {
		close(c.quit)
	}
	if c.running.Load() {
		<-c.done
	}
}

// do runs fn on the loop and waits for it to finish
func (c *Controller) do(ctx context.Context, fn func()) error {
	if c.stopped.Load() {
		return ErrControllerStopped
	}
	ran := make(chan struct{})
	task := func() {
		defer close(ran)
		fn()
	}
	select {
	case c.inbox <- task:
	case <-c.done:
		return ErrControllerStopped
	case <-c.quit:
		return ErrControllerStopped
	case <-ctx.Done():
		return ctx.Err()
	}
	<-ran
	return nil
}

func (c *Controller) setConfiguration(config Configuration) {
	c.config = config
	c.validator = NewValidator(config)
}

// SelectFiles validates a selection batch and starts its processing pipeline.
// A validation failure rejects the whole batch and is returned directly; the
// slot set is left untouched. Otherwise files are normalized, scanned and
// admitted in selection order, and the returned Batch reports per-file
// processing failures.
func (c *Controller) SelectFiles(ctx context.Context, files []FileDescriptor) (*Batch, error) {
	var (
		accepted []FileDescriptor
		verr     error
		gen      int
	)
	err := c.do(ctx, func() {
		existing := c.store.Names()
		for name := range c.reserved {
			existing = append(existing, name)
		}
		accepted, verr = c.validator.Validate(files, existing)
		if verr != nil {
			c.logger.Printf("intake: rejected batch of %d file(s): %v", len(files), verr)
			c.warning = UserMessage(verr)
			c.recompute()
			return
		}
		for _, f := range accepted {
			c.reserved[f.Name] = struct{}{}
		}
		gen = c.generation
	})
	if err != nil {
		return nil, err
	}
	if verr != nil {
		return nil, verr
	}

	b := newBatch(accepted)
	go c.process(b, accepted, gen)
	return b, nil
}

// process runs the pipeline for one batch; it always runs to completion
func (c *Controller) process(b *Batch, files []FileDescriptor, gen int) {
	defer close(b.done)

	for _, f := range files {
		prepared, encrypted, encoded, perr := c.prepare(f)

		var outcome error
		err := c.do(context.Background(), func() {
			outcome = c.admit(gen, f.Name, prepared, encrypted, encoded, perr)
		})
		if err != nil {
			outcome = fmt.Errorf("%s: %w", f.Name, err)
		}
		if outcome != nil {
			b.errs = append(b.errs, outcome)
		}
	}
}

func (c *Controller) prepare(f FileDescriptor) (FileDescriptor, bool, string, error) {
	normalized, err := c.normalizer.Normalize(f)
	if err != nil {
		return f, false, "", err
	}
	encrypted := c.detector.DetectFile(normalized)
	return normalized, encrypted, base64.StdEncoding.EncodeToString(normalized.Data), nil
}

func (c *Controller) admit(gen int, name string, f FileDescriptor, encrypted bool, encoded string, perr error) error {
	if gen != c.generation {
		c.logger.Printf("intake: dropping %q, requirement changed while it was processed", name)
		return fmt.Errorf("%s: %w", name, ErrBatchSuperseded)
	}
	delete(c.reserved, name)

	if perr != nil {
		c.logger.Printf("intake: processing failed for %q: %v", name, perr)
		c.warning = UserMessage(perr)
		c.recompute()
		return perr
	}

	c.logger.Printf("intake: admitted %q (%s, %d bytes, encrypted=%t)", name, f.MimeType, f.Size, encrypted)
	c.store.Admit(f, encrypted, encoded)
	return nil
}

// RemoveFile deletes the named slot
func (c *Controller) RemoveFile(ctx context.Context, name string) error {
	var found bool
	err := c.do(ctx, func() {
		if _, found = c.store.Get(name); !found {
			return
		}
		// ordinals of the remaining slots shift, so earlier results no longer line up
		c.results = nil
		delete(c.cleared, name)
		c.store.Remove(name)
	})
	if err != nil {
		return err
	}
	if !found {
		return fmt.Errorf("%q: %w", name, ErrUnknownSlot)
	}
	return nil
}

// SetPassword stores the password for an encrypted slot and clears its
// warning until the next ApplyResults
func (c *Controller) SetPassword(ctx context.Context, name, password string) error {
	var found bool
	err := c.do(ctx, func() {
		if _, found = c.store.Get(name); !found {
			return
		}
		c.cleared[name] = true
		c.store.SetPassword(name, password)
	})
	if err != nil {
		return err
	}
	if !found {
		return fmt.Errorf("%q: %w", name, ErrUnknownSlot)
	}
	return nil
}

// ApplyResults replaces the verification result set and recomputes slot status
func (c *Controller) ApplyResults(ctx context.Context, results []ValidationResult) error {
	snapshot := append([]ValidationResult(nil), results...)
	return c.do(ctx, func() {
		c.results = snapshot
		c.cleared = make(map[string]bool)
		c.recompute()
		for ord, st := range c.state.PerSlotStatus {
			if st.PasswordIncorrect {
				c.logger.Printf("intake: slot %d: %v", ord, NewError(ErrorTypeInvalidPasswordReported, st.Message))
			}
		}
	})
}

// SelectRequirement switches the active document type. The slot set is
// cleared because files collected for one requirement do not satisfy another.
func (c *Controller) SelectRequirement(ctx context.Context, key string) (requirement.Requirement, error) {
	var (
		req  requirement.Requirement
		perr error
	)
	err := c.do(ctx, func() {
		if c.selector == nil {
			perr = requirement.ErrNoSelector
			return
		}
		var ok bool
		if req, ok = c.selector.Select(key); !ok {
			perr = fmt.Errorf("%q: %w", key, requirement.ErrUnknownOption)
			return
		}
		c.applyRequirement(req)
	})
	if err != nil {
		return req, err
	}
	return req, perr
}

// SetEmploymentStatus rebuilds the option table from an employment status.
// The slot limit follows the surviving selection, or the configured limit
// when nothing is selected. The slot set is cleared when the selection is
// dropped or when the new limit is below the number of admitted slots.
func (c *Controller) SetEmploymentStatus(ctx context.Context, status string) (requirement.Requirement, error) {
	var (
		req  requirement.Requirement
		perr error
	)
	err := c.do(ctx, func() {
		if c.selector == nil {
			perr = requirement.ErrNoSelector
			return
		}
		_, wasSelected := c.selector.Current()
		if req, perr = c.selector.ApplyEmployment(status); perr != nil {
			return
		}
		_, stillSelected := c.selector.Current()
		if !stillSelected {
			req.SlotLimit = c.baseSlots
		}
		// reserved names count against the limit too
		if (wasSelected && !stillSelected) || req.SlotLimit < c.store.Count()+len(c.reserved) {
			c.applyRequirement(req)
			return
		}
		c.setConfiguration(c.config.WithMaxSlots(req.SlotLimit))
		c.recompute()
	})
	if err != nil {
		return req, err
	}
	return req, perr
}

func (c *Controller) applyRequirement(req requirement.Requirement) {
	c.logger.Printf("intake: requirement %q selected (limit %d)", req.Key, req.SlotLimit)
	c.generation++
	c.reserved = make(map[string]struct{})
	c.results = nil
	c.cleared = make(map[string]bool)
	c.setConfiguration(c.config.WithMaxSlots(req.SlotLimit))
	c.store.Reset()
}

// MarkSubmitted flags every slot as sent to the verification service
func (c *Controller) MarkSubmitted(ctx context.Context) error {
	return c.do(ctx, func() {
		for _, name := range c.store.Names() {
			c.store.MarkProcessed(name)
		}
	})
}

// State returns a snapshot of the aggregate state
func (c *Controller) State(ctx context.Context) (AggregateState, error) {
	var st AggregateState
	err := c.do(ctx, func() {
		st = c.state
		st.Slots = append([]SlotView(nil), c.state.Slots...)
		st.PerSlotStatus = make(map[int]SlotStatus, len(c.state.PerSlotStatus))
		for k, v := range c.state.PerSlotStatus {
			st.PerSlotStatus[k] = v
		}
	})
	return st, err
}

// Submittable reports whether the form may be submitted
func (c *Controller) Submittable(ctx context.Context) (bool, error) {
	var ok bool
	err := c.do(ctx, func() { ok = c.state.Submittable })
	return ok, err
}

// Options returns the requirement options currently offered
func (c *Controller) Options(ctx context.Context) (requirement.Table, error) {
	var t requirement.Table
	err := c.do(ctx, func() {
		if c.selector != nil {
			t = c.selector.Options()
		}
	})
	return t, err
}

// Slots returns a copy of the live slots, including raw bytes and passwords
func (c *Controller) Slots(ctx context.Context) ([]FileSlot, error) {
	var slots []FileSlot
	err := c.do(ctx, func() { slots = c.store.Slots() })
	return slots, err
}

// Submission builds the payload the host sends to the verification service
func (c *Controller) Submission(ctx context.Context) (Submission, error) {
	var sub Submission
	err := c.do(ctx, func() {
		slots := c.store.Slots()
		names := make([]string, len(slots))
		sizes := make([]string, len(slots))
		sub.Files = make([]string, len(slots))
		for i, s := range slots {
			sub.Files[i] = s.DataURL()
			names[i] = strings.ReplaceAll(s.Name, ",", "")
			sizes[i] = strconv.FormatInt(s.SizeBytes, 10)
		}
		sub.Value = strings.Join(sub.Files, ",")
		sub.FileNames = strings.Join(names, ",")
		sub.FileSizes = strings.Join(sizes, ",")
		sub.Endpoint = c.state.Endpoint
		sub.Passwords = strings.Join(c.store.Passwords(), PasswordDelimiter)
	})
	return sub, err
}

func (c *Controller) handleMutation(m Mutation, name string) {
	c.warning = ""
	c.recompute()

	slots := c.store.Slots()
	ev := ChangeEvent{
		Files:     slots,
		FileNames: c.store.Names(),
		FileSizes: c.store.Sizes(),
	}
	for _, fn := range c.onChange {
		fn(ev)
	}

	if m == MutationProcessed {
		return
	}
	pe := PasswordEvent{Visible: strings.Join(c.store.Passwords(), PasswordDelimiter)}
	for _, fn := range c.onPassword {
		fn(pe)
	}
}

// recompute rebuilds the aggregate state from slots, passwords and results
func (c *Controller) recompute() {
	if c.store == nil {
		return
	}
	slots := c.store.Slots()
	statuses := c.merger.Merge(c.results, len(slots))

	views := make([]SlotView, len(slots))
	needsPassword := false
	for i, s := range slots {
		ord := i + 1
		st := statuses[ord]
		if st.Status == StatusWarning && c.cleared[s.Name] {
			st = SlotStatus{Status: StatusPass}
			statuses[ord] = st
		}
		if s.NeedsPassword() {
			needsPassword = true
		}
		views[i] = SlotView{
			Ordinal:     ord,
			Name:        s.Name,
			MimeType:    s.MimeType,
			SizeBytes:   s.SizeBytes,
			DisplaySize: s.DisplaySize(),
			IsEncrypted: s.IsEncrypted,
			HasPassword: s.Password != "",
			Processed:   s.Processed,
			Status:      st,
			Binding:     BindingFor(ord),
		}
	}

	state := AggregateState{
		Slots:             views,
		PerSlotStatus:     statuses,
		Submittable:       len(slots) > 0 && !needsPassword && !AnyWarning(statuses),
		SlotCount:         len(slots),
		MaxSlots:          c.config.MaxSlots,
		AddControlVisible: len(slots) < c.config.MaxSlots,
		FileTypeInfo:      c.config.FileTypeInfo(),
		Warning:           c.warning,
	}
	if c.selector != nil {
		req, selected := c.selector.Current()
		state.Endpoint = req.Endpoint
		if selected {
			state.Requirement = req.Key
			state.HeaderText = req.Label
		}
	}
	c.state = state
}
