package surveysync

import (
	"context"
	"fmt"
	"strings"

	"bitbucket.org/mmdatafocus/clinic_backend/models"
	"bitbucket.org/mmdatafocus/clinic_backend/utils"
)

// Patient is the identity view this package needs; the full user
// aggregate stays in models.
type Patient struct {
	ID    int
	Name  string
	Phone string
	Email string
}

// PatientPatch carries only the columns an upsert intends to change.
type PatientPatch struct {
	Name  *string
	Phone *string
	Email *string
}

// PatientStore finds and persists patient identities. Find methods
// return (nil, nil) when no patient matches.
type PatientStore interface {
	FindByPhone(ctx context.Context, phone string) (*Patient, error)
	FindByEmail(ctx context.Context, email string) (*Patient, error)
	Create(ctx context.Context, name string, phone string, email string) (*Patient, error)
	Update(ctx context.Context, id int, patch PatientPatch) error
}

// upsertIdentity resolves name/phone/email from the extracted answers
// and finds or creates the matching patient. A found patient only gets
// blank contact fields filled; a non-blank phone or email is never
// overwritten. Full name is refreshed whenever the response carries one.
func (e *Engine) upsertIdentity(ctx context.Context, entries []AnswerEntry) (*Patient, error) {
	fullName := strings.TrimSpace(ResolveAliasField(entries, fullNameAliases))
	phone := NormalizePhone(ResolveAliasField(entries, phoneAliases), e.cfg.CountryCallingCode)
	email := strings.ToLower(strings.TrimSpace(ResolveAliasField(entries, emailAliases)))

	if phone == "" && email == "" {
		return nil, errIdentityMissing
	}

	if phone != "" {
		if err := utils.ValidatePhoneNumber(phone, e.cfg.CountryRegion); err != nil {
			// keep going; the digit-normalized value is still usable as a key
			e.logger.Warnf("survey sync: phone %q failed plausibility check: %v", phone, err)
		}
	}

	patient, err := e.patients.FindByPhone(ctx, phone)
	if err != nil {
		return nil, fmt.Errorf("find patient by phone: %w", err)
	}
	if patient == nil {
		patient, err = e.patients.FindByEmail(ctx, email)
		if err != nil {
			return nil, fmt.Errorf("find patient by email: %w", err)
		}
	}

	if patient != nil {
		patch := PatientPatch{}
		if patient.Phone == "" && phone != "" {
			patch.Phone = &phone
			patient.Phone = phone
		}
		if patient.Email == "" && email != "" {
			patch.Email = &email
			patient.Email = email
		}
		if fullName != "" && fullName != patient.Name {
			patch.Name = &fullName
			patient.Name = fullName
		}
		if patch.Name != nil || patch.Phone != nil || patch.Email != nil {
			if err := e.patients.Update(ctx, patient.ID, patch); err != nil {
				return nil, fmt.Errorf("update patient %d: %w", patient.ID, err)
			}
		}
		return patient, nil
	}

	created, err := e.patients.Create(ctx, fullName, phone, email)
	if err != nil {
		return nil, fmt.Errorf("create patient: %w", err)
	}
	return created, nil
}

type gormPatientStore struct{}

// NewPatientStore returns the models-backed PatientStore.
func NewPatientStore() PatientStore {
	return &gormPatientStore{}
}

func (s *gormPatientStore) FindByPhone(ctx context.Context, phone string) (*Patient, error) {
	user, err := models.FindPatientByPhone(ctx, phone)
	if err != nil || user == nil {
		return nil, err
	}
	return patientFromUser(user), nil
}

func (s *gormPatientStore) FindByEmail(ctx context.Context, email string) (*Patient, error) {
	user, err := models.FindPatientByEmail(ctx, email)
	if err != nil || user == nil {
		return nil, err
	}
	return patientFromUser(user), nil
}

func (s *gormPatientStore) Create(ctx context.Context, name string, phone string, email string) (*Patient, error) {
	user, err := models.CreatePatientUser(ctx, name, phone, email)
	if err != nil {
		return nil, err
	}
	return patientFromUser(user), nil
}

func (s *gormPatientStore) Update(ctx context.Context, id int, patch PatientPatch) error {
	updates := map[string]interface{}{}
	if patch.Name != nil {
		updates["name"] = *patch.Name
	}
	if patch.Phone != nil {
		updates["phone"] = *patch.Phone
	}
	if patch.Email != nil {
		updates["email"] = *patch.Email
	}
	return models.UpdatePatientContact(ctx, id, updates)
}

func patientFromUser(user *models.User) *Patient {
	return &Patient{
		ID:    user.ID,
		Name:  user.Name,
		Phone: user.Phone,
		Email: utils.DereferencePtr(user.Email),
	}
}
