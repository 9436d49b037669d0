package intake

import (
	"fmt"
	"strings"
)

// Validator evaluates a selection batch against the active configuration.
// It holds no state beyond the configuration it was built with.
type Validator struct {
	config Configuration
}

// NewValidator creates a new validator with the specified constraints
func NewValidator(config Configuration) *Validator {
	return &Validator{config: config}
}

// Configuration returns the constraints the validator enforces
func (v *Validator) Configuration() Configuration {
	return v.config
}

// Validate checks a batch against the slot names already taken.
// The first violation rejects the whole batch; on success the batch is
// returned in selection order.
func (v *Validator) Validate(batch []FileDescriptor, existing []string) ([]FileDescriptor, error) {
	if len(batch) == 0 {
		return nil, nil
	}

	if len(existing)+len(batch) > v.config.MaxSlots {
		return nil, NewError(ErrorTypeSlotLimitExceeded, v.config.maxFilesMessage())
	}

	maxBytes := v.config.MaxFileSizeBytes()
	for _, f := range batch {
		if f.Size > maxBytes {
			return nil, NewError(ErrorTypeFileTooLarge, v.config.fileSizeMessage()).WithFile(f.Name)
		}
	}

	taken := make(map[string]struct{}, len(existing)+len(batch))
	for _, name := range existing {
		taken[name] = struct{}{}
	}
	for _, f := range batch {
		if _, dup := taken[f.Name]; dup {
			return nil, NewError(ErrorTypeDuplicateName, duplicateMessage(f.Name)).WithFile(f.Name)
		}
		taken[f.Name] = struct{}{}
	}

	for _, f := range batch {
		if !v.config.Allows(f.MimeType) {
			return nil, NewError(ErrorTypeUnsupportedType, v.unsupportedTypeMessage()).WithFile(f.Name)
		}
	}

	accepted := make([]FileDescriptor, len(batch))
	copy(accepted, batch)
	return accepted, nil
}

func duplicateMessage(name string) string {
	return fmt.Sprintf("A file with name \"%s\" is already uploaded. Please upload a file with different name.", name)
}

func (v *Validator) unsupportedTypeMessage() string {
	var b strings.Builder
	if len(v.config.AllowedTypes) == 1 {
		b.WriteString("The file is not of type ")
	} else {
		b.WriteString("The file's type is not one of ")
	}
	b.WriteString(strings.Join(v.config.AllowedLabels(), ", "))
	b.WriteString(". Please use a file of valid type.")
	return b.String()
}
