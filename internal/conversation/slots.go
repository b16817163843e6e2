package conversation

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

// Slot names a single field of the booking form.
type Slot string

const (
	SlotOwnerName   Slot = "owner_name"
	SlotPhone       Slot = "phone"
	SlotEmail       Slot = "email"
	SlotPetName     Slot = "pet_name"
	SlotPetSpecies  Slot = "pet_species"
	SlotPetBreed    Slot = "pet_breed"
	SlotPetAge      Slot = "pet_age"
	SlotReason      Slot = "reason"
	SlotDesiredTime Slot = "desired_time"
)

// RequiredSlots lists the slots a booking must fill, in prompting priority
// order. pet_breed is collected opportunistically but never required.
var RequiredSlots = []Slot{
	SlotOwnerName,
	SlotPhone,
	SlotEmail,
	SlotPetName,
	SlotPetSpecies,
	SlotPetAge,
	SlotReason,
	SlotDesiredTime,
}

// slotLabels maps slots to the user-facing Spanish phrasing used in prompts
// and validation messages.
var slotLabels = map[Slot]string{
	SlotOwnerName:   "su nombre completo",
	SlotPhone:       "un teléfono de contacto",
	SlotEmail:       "un correo electrónico de contacto",
	SlotPetName:     "el nombre de la mascota",
	SlotPetSpecies:  "la especie de la mascota (perro, gato...)",
	SlotPetBreed:    "la raza de la mascota",
	SlotPetAge:      "la edad de la mascota",
	SlotReason:      "el motivo de la consulta",
	SlotDesiredTime: "la fecha y hora deseada para la cita",
}

// SlotLabel returns the Spanish label for a slot, falling back to the raw
// slot name for anything unmapped.
func SlotLabel(slot Slot) string {
	if label, ok := slotLabels[slot]; ok {
		return label
	}
	return string(slot)
}

// BookingStatus marks the lifecycle of a booking within a conversation.
type BookingStatus string

const (
	BookingStatusNone       BookingStatus = ""
	BookingStatusInProgress BookingStatus = "in_progress"
)

// BookingMemory is the structured appointment memory accumulated across
// turns. A slot, once set, is only removed by explicit business logic
// (a failed availability check removes desired_time) or by Clear.
type BookingMemory struct {
	Status      BookingStatus `json:"status,omitempty"`
	OwnerName   string        `json:"owner_name,omitempty"`
	Phone       string        `json:"phone,omitempty"`
	Email       string        `json:"email,omitempty"`
	PetName     string        `json:"pet_name,omitempty"`
	PetSpecies  string        `json:"pet_species,omitempty"`
	PetBreed    string        `json:"pet_breed,omitempty"`
	PetAge      string        `json:"pet_age,omitempty"`
	Reason      string        `json:"reason,omitempty"`
	DesiredTime string        `json:"desired_time,omitempty"`
}

// IsEmpty reports whether no slot-filling has happened for this booking.
func (m *BookingMemory) IsEmpty() bool {
	return m.Status == BookingStatusNone &&
		m.OwnerName == "" && m.Phone == "" && m.Email == "" &&
		m.PetName == "" && m.PetSpecies == "" && m.PetBreed == "" &&
		m.PetAge == "" && m.Reason == "" && m.DesiredTime == ""
}

// Clear resets the booking to its zero state.
func (m *BookingMemory) Clear() {
	*m = BookingMemory{}
}

// Get returns the current value of a slot.
func (m *BookingMemory) Get(slot Slot) string {
	switch slot {
	case SlotOwnerName:
		return m.OwnerName
	case SlotPhone:
		return m.Phone
	case SlotEmail:
		return m.Email
	case SlotPetName:
		return m.PetName
	case SlotPetSpecies:
		return m.PetSpecies
	case SlotPetBreed:
		return m.PetBreed
	case SlotPetAge:
		return m.PetAge
	case SlotReason:
		return m.Reason
	case SlotDesiredTime:
		return m.DesiredTime
	}
	return ""
}

// Set assigns a slot value. Unknown slots are ignored.
func (m *BookingMemory) Set(slot Slot, value string) {
	switch slot {
	case SlotOwnerName:
		m.OwnerName = value
	case SlotPhone:
		m.Phone = value
	case SlotEmail:
		m.Email = value
	case SlotPetName:
		m.PetName = value
	case SlotPetSpecies:
		m.PetSpecies = value
	case SlotPetBreed:
		m.PetBreed = value
	case SlotPetAge:
		m.PetAge = value
	case SlotReason:
		m.Reason = value
	case SlotDesiredTime:
		m.DesiredTime = value
	}
}

// Merge overwrites slots present in fields and leaves every other slot
// untouched. Accumulation, not replacement.
func (m *BookingMemory) Merge(fields map[Slot]string) {
	for slot, value := range fields {
		if strings.TrimSpace(value) == "" {
			continue
		}
		m.Set(slot, value)
	}
}

// Missing returns the required slots still unset, in priority order.
func (m *BookingMemory) Missing() []Slot {
	var missing []Slot
	for _, slot := range RequiredSlots {
		if m.Get(slot) == "" {
			missing = append(missing, slot)
		}
	}
	return missing
}

// FieldError reports a slot whose extracted value failed validation.
type FieldError struct {
	Slot   Slot
	Reason string
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("conversation: invalid value for %s: %s", e.Slot, e.Reason)
}

var (
	emailRe = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
	digitRe = regexp.MustCompile(`\d`)
)

// ValidateSlot checks one extracted value against the slot's rules and
// returns the normalized value to store. Phone numbers are normalized to
// digits only; every other slot is stored trimmed.
func ValidateSlot(slot Slot, value string) (string, *FieldError) {
	value = strings.TrimSpace(value)

	switch slot {
	case SlotOwnerName:
		if utf8.RuneCountInString(value) < 2 {
			return "", &FieldError{Slot: slot, Reason: "el nombre debe tener al menos 2 caracteres"}
		}
	case SlotPhone:
		digits := keepDigits(value)
		if len(digits) < 7 || len(digits) > 15 {
			return "", &FieldError{Slot: slot, Reason: "el teléfono debe contener entre 7 y 15 dígitos"}
		}
		return digits, nil
	case SlotEmail:
		if !emailRe.MatchString(value) {
			return "", &FieldError{Slot: slot, Reason: "el correo electrónico no tiene un formato válido"}
		}
	case SlotPetName:
		if utf8.RuneCountInString(value) < 1 {
			return "", &FieldError{Slot: slot, Reason: "el nombre de la mascota no puede estar vacío"}
		}
	case SlotPetSpecies, SlotDesiredTime:
		if value == "" {
			return "", &FieldError{Slot: slot, Reason: "el valor no puede estar vacío"}
		}
	case SlotPetAge:
		if !digitRe.MatchString(value) {
			return "", &FieldError{Slot: slot, Reason: "la edad debe incluir un número (por ejemplo, '3 años')"}
		}
	case SlotReason:
		if utf8.RuneCountInString(value) < 3 {
			return "", &FieldError{Slot: slot, Reason: "el motivo debe tener al menos 3 caracteres"}
		}
	case SlotPetBreed:
		// Optional, any non-empty text is fine.
	}

	return value, nil
}

func keepDigits(s string) string {
	var b strings.Builder
	for _, r := range s {
		if unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}
