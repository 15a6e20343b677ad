package sharing

import (
	"time"

	"pet-health-sync/internal/domain/records"
)

// CodeAlphabet son los 32 caracteres permitidos en un share code.
// Excluye glifos confundibles (0/O, 1/I).
const CodeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

// CodeLength es el largo fijo de un share code.
const CodeLength = 6

// ShareToken es un código corto que una persona puede tipear para obtener un
// tier sobre una mascota. Nunca se muta ni se borra: se desactiva (Active =
// false), lo que bloquea redemptions futuras sin tocar las ya hechas.
type ShareToken struct {
	Code  string
	PetID string

	Tier records.Tier // full o guest, fijado al crear

	CreatedByID   string
	CreatedByName string
	CreatedAt     time.Time

	Active bool
}

// Las redemptions que generan estos tokens viven en records.Redemption: las
// comparte este módulo con el resolver de acceso.
