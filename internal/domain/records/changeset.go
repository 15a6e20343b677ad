package records

import "time"

// MinValidTime es el piso de timestamps que acepta el storage.
// Timestamps de clientes con reloj basura (anteriores al piso) se reemplazan
// por "now" al momento del upsert; ver Clamp.
var MinValidTime = time.Date(2000, 1, 1, 0, 0, 0, 0, time.UTC)

// Clamp devuelve t, o now si t está por debajo del piso de storage.
// Un timestamp clampeado ordena como "now": dos clientes con relojes
// inválidos ganan en orden de llegada al server.
func Clamp(t, now time.Time) time.Time {
	if t.Before(MinValidTime) {
		return now
	}
	return t
}

// ChangeSet agrupa las seis colecciones sincronizables de una mascota.
// Se usa para los cambios que sube el cliente, el delta que devuelve el
// server y el snapshot completo de una redemption.
type ChangeSet struct {
	Pets        []Pet        `json:"pets"`
	InsulinLogs []InsulinLog `json:"insulin_logs"`
	FeedingLogs []FeedingLog `json:"feeding_logs"`
	WeightLogs  []WeightLog  `json:"weight_logs"`
	VetInfos    []VetInfo    `json:"vet_infos"`
	Schedules   []Schedule   `json:"schedules"`
}

// IsEmpty indica si no hay ningún record en ninguna colección.
func (c ChangeSet) IsEmpty() bool {
	return len(c.Pets) == 0 &&
		len(c.InsulinLogs) == 0 &&
		len(c.FeedingLogs) == 0 &&
		len(c.WeightLogs) == 0 &&
		len(c.VetInfos) == 0 &&
		len(c.Schedules) == 0
}

// FilterForTier aplica el filtro de visibilidad por tier sobre un ChangeSet.
// Es la ÚNICA implementación del filtro: la usan tanto el delta de sync como
// el snapshot de redemption, para que ambas rutas no puedan divergir.
//
// Reglas:
//   - owner/full: todo visible.
//   - guest: insulin/feeding restringidos a LoggedByID == callerID;
//     weight y vet info siempre vacíos; pets y schedules visibles.
func FilterForTier(c ChangeSet, tier Tier, callerID string) ChangeSet {
	if tier == TierOwner || tier == TierFull {
		return c
	}

	out := ChangeSet{
		Pets:      c.Pets,
		Schedules: c.Schedules,

		// Vacíos explícitos, no nil, para que el JSON serialice [].
		InsulinLogs: make([]InsulinLog, 0),
		FeedingLogs: make([]FeedingLog, 0),
		WeightLogs:  make([]WeightLog, 0),
		VetInfos:    make([]VetInfo, 0),
	}

	for _, l := range c.InsulinLogs {
		if l.LoggedByID == callerID {
			out.InsulinLogs = append(out.InsulinLogs, l)
		}
	}
	for _, l := range c.FeedingLogs {
		if l.LoggedByID == callerID {
			out.FeedingLogs = append(out.FeedingLogs, l)
		}
	}

	return out
}
