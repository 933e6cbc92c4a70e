package usecase

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/phenrril/clientes/internal/domain"
)

var (
	ErrFormBusy   = errors.New("form is busy")
	ErrFormClosed = errors.New("form is closed")
)

type FormMode string

const (
	FormCreate FormMode = "create"
	FormEdit   FormMode = "edit"
)

type FormPhase string

const (
	FormIdle       FormPhase = "idle"
	FormSubmitting FormPhase = "submitting"
	FormSucceeded  FormPhase = "succeeded"
	FormFailed     FormPhase = "failed"
)

type FormState struct {
	// Session identifies the form instance for its whole lifetime.
	Session string
	Phase   FormPhase
	Mode    FormMode
	// Record is the bound record in edit mode.
	Record *domain.Customer
	// Reason is set while Phase is FormFailed.
	Reason error
}

// FormEvents are the notifications raised to the form's owner. Nil callbacks
// are skipped.
type FormEvents struct {
	OnSaveSuccess func()
	OnCancel      func()
	OnError       func(error)
	OnStateChange func(FormState)
}

type FormOptions struct {
	Events FormEvents
	Logger *zerolog.Logger
}

// CustomerForm drives the create/edit cycle of a single record.
type CustomerForm struct {
	customers domain.CustomerWriter
	events    FormEvents
	session   string
	log       zerolog.Logger

	mu        sync.Mutex
	phase     FormPhase
	reason    error
	record    *domain.Customer
	values    FormValues
	touched   map[domain.Field]bool
	submitted bool
	lastErr   error
	closed    bool
	pending   []func()
}

func NewCustomerForm(customers domain.CustomerWriter, opts FormOptions) *CustomerForm {
	logger := zerolog.Nop()
	if opts.Logger != nil {
		logger = *opts.Logger
	}
	session := uuid.NewString()
	return &CustomerForm{
		customers: customers,
		events:    opts.Events,
		session:   session,
		log:       logger.With().Str("form", session).Logger(),
		phase:     FormIdle,
		values:    defaultFormValues(),
		touched:   map[domain.Field]bool{},
	}
}

// Load binds the form to record, or to a fresh entry when record is nil.
func (f *CustomerForm) Load(record *domain.Customer) error {
	f.mu.Lock()
	if err := f.idleLocked(); err != nil {
		f.mu.Unlock()
		return err
	}
	if record == nil {
		f.record = nil
		f.values = defaultFormValues()
	} else {
		rec := *record
		f.record = &rec
		f.values = formValuesOf(rec)
	}
	f.submitted = false
	f.touched = map[domain.Field]bool{}
	f.lastErr = nil
	f.queueState()
	f.mu.Unlock()

	f.flush()
	return nil
}

// Set assigns a field value as typed by the user and marks the field touched.
func (f *CustomerForm) Set(field domain.Field, value string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.idleLocked(); err != nil {
		return err
	}
	switch field {
	case domain.FieldFirstName:
		f.values.FirstName = value
	case domain.FieldLastName:
		f.values.LastName = value
	case domain.FieldEmail:
		f.values.Email = value
	case domain.FieldPhone:
		f.values.Phone = value
	case domain.FieldIsActive:
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("isActive: %w", err)
		}
		f.values.IsActive = b
	default:
		return fmt.Errorf("unknown field %q", field)
	}
	f.touched[field] = true
	return nil
}

func (f *CustomerForm) SetActive(active bool) error {
	return f.Set(domain.FieldIsActive, strconv.FormatBool(active))
}

// Touch marks a field as interacted with without changing it.
func (f *CustomerForm) Touch(field domain.Field) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.touched[field] = true
}

// Submit trims and validates the values, then creates or updates the record.
// Invalid values return a *domain.ValidationError without calling the store.
// On a store failure the values are kept so the user can retry.
func (f *CustomerForm) Submit(ctx context.Context) error {
	f.mu.Lock()
	if err := f.idleLocked(); err != nil {
		f.mu.Unlock()
		return err
	}
	f.submitted = true
	f.values = f.values.trimmed()
	if errs := ValidateValues(f.values); len(errs) > 0 {
		f.mu.Unlock()
		verr := &domain.ValidationError{Fields: errs}
		f.log.Debug().Err(verr).Msg("submit rejected")
		return verr
	}
	record := f.record
	draft := f.values.draft(record)
	if err := f.transition(FormSubmitting, nil); err != nil {
		f.mu.Unlock()
		return err
	}
	f.mu.Unlock()
	f.flush()

	var (
		saved *domain.Customer
		err   error
	)
	if record != nil {
		f.log.Debug().Int("id", record.ID).Msg("updating customer")
		saved, err = f.customers.Update(ctx, record.ID, draft)
	} else {
		f.log.Debug().Msg("creating customer")
		saved, err = f.customers.Create(ctx, draft)
	}

	f.mu.Lock()
	if f.closed {
		f.phase = FormIdle
		f.pending = nil
		f.mu.Unlock()
		return err
	}
	if err != nil {
		f.lastErr = err
		f.log.Warn().Err(err).Msg("save failed")
		_ = f.transition(FormFailed, err)
		f.queue(func() {
			if f.events.OnError != nil {
				f.events.OnError(err)
			}
		})
		_ = f.transition(FormIdle, nil)
		f.mu.Unlock()
		f.flush()
		return err
	}

	f.lastErr = nil
	_ = f.transition(FormSucceeded, nil)
	if record == nil {
		f.values = defaultFormValues()
		f.submitted = false
		f.touched = map[domain.Field]bool{}
	} else {
		rec := *saved
		f.record = &rec
		f.values = formValuesOf(rec)
	}
	f.log.Info().Int("id", saved.ID).Bool("update", record != nil).Msg("customer saved")
	f.queue(func() {
		if f.events.OnSaveSuccess != nil {
			f.events.OnSaveSuccess()
		}
	})
	_ = f.transition(FormIdle, nil)
	f.mu.Unlock()
	f.flush()
	return nil
}

// Cancel notifies the owner that the user abandoned the form. The store is
// never touched.
func (f *CustomerForm) Cancel() error {
	f.mu.Lock()
	if err := f.idleLocked(); err != nil {
		f.mu.Unlock()
		return err
	}
	f.queue(func() {
		if f.events.OnCancel != nil {
			f.events.OnCancel()
		}
	})
	f.mu.Unlock()
	f.flush()
	return nil
}

// Close tears the form down. A store result that arrives afterwards raises
// no notification.
func (f *CustomerForm) Close() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	f.pending = nil
}

// Session is the id carried by every FormState of this form.
func (f *CustomerForm) Session() string {
	return f.session
}

func (f *CustomerForm) State() FormState {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.stateLocked()
}

func (f *CustomerForm) Values() FormValues {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.values
}

func (f *CustomerForm) Saving() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.phase == FormSubmitting
}

func (f *CustomerForm) Submitted() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.submitted
}

func (f *CustomerForm) LastError() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.lastErr
}

func (f *CustomerForm) IsEditMode() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.record != nil
}

func (f *CustomerForm) Title() string {
	if f.IsEditMode() {
		return "Edit customer"
	}
	return "Add customer"
}

func (f *CustomerForm) SubmitLabel() string {
	if f.IsEditMode() {
		return "Update"
	}
	return "Create"
}

// Errors validates the current values regardless of visibility.
func (f *CustomerForm) Errors() map[domain.Field]domain.FieldError {
	f.mu.Lock()
	defer f.mu.Unlock()
	return ValidateValues(f.values.trimmed())
}

// VisibleErrors keeps the errors of fields that were touched, or all of them
// once the form has been submitted.
func (f *CustomerForm) VisibleErrors() map[domain.Field]domain.FieldError {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := map[domain.Field]domain.FieldError{}
	for field, fe := range ValidateValues(f.values.trimmed()) {
		if f.submitted || f.touched[field] {
			out[field] = fe
		}
	}
	return out
}

// ErrorMessage is the message to show under field, or "" when none is visible.
func (f *CustomerForm) ErrorMessage(field domain.Field) string {
	fe, ok := f.VisibleErrors()[field]
	if !ok {
		return ""
	}
	return fe.Message()
}

func (f *CustomerForm) idleLocked() error {
	if f.closed {
		return ErrFormClosed
	}
	if f.phase != FormIdle {
		return ErrFormBusy
	}
	return nil
}

func (f *CustomerForm) stateLocked() FormState {
	st := FormState{Session: f.session, Phase: f.phase, Mode: FormCreate}
	if f.record != nil {
		rec := *f.record
		st.Mode = FormEdit
		st.Record = &rec
	}
	if f.phase == FormFailed {
		st.Reason = f.reason
	}
	return st
}

func isAllowedFormTransition(from, to FormPhase) bool {
	switch from {
	case FormIdle:
		return to == FormSubmitting
	case FormSubmitting:
		return to == FormSucceeded || to == FormFailed
	case FormSucceeded, FormFailed:
		return to == FormIdle
	default:
		return false
	}
}

func (f *CustomerForm) transition(to FormPhase, reason error) error {
	if !isAllowedFormTransition(f.phase, to) {
		return fmt.Errorf("invalid form transition: %s -> %s", f.phase, to)
	}
	f.log.Debug().Str("from", string(f.phase)).Str("to", string(to)).Msg("transition")
	f.phase = to
	f.reason = reason
	f.queueState()
	return nil
}

func (f *CustomerForm) queueState() {
	st := f.stateLocked()
	f.queue(func() {
		if f.events.OnStateChange != nil {
			f.events.OnStateChange(st)
		}
	})
}

func (f *CustomerForm) queue(fn func()) {
	f.pending = append(f.pending, fn)
}

// flush runs queued notifications outside the lock, in order, so owners may
// call back into the form. Nothing runs once the form is closed.
func (f *CustomerForm) flush() {
	for {
		f.mu.Lock()
		if f.closed || len(f.pending) == 0 {
			f.pending = nil
			f.mu.Unlock()
			return
		}
		fn := f.pending[0]
		f.pending = f.pending[1:]
		f.mu.Unlock()
		fn()
	}
}
