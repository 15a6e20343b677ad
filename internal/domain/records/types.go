package records

// Tier es el nivel de permiso del caller sobre una mascota.
// Se calcula en cada llamada (owner match o redemption activa), nunca se persiste.
// @Enum owner, full, guest
type Tier string

const (
	TierOwner Tier = "owner"
	TierFull  Tier = "full"
	TierGuest Tier = "guest"
)

// Species define las especies soportadas.
// @Enum dog, cat
type Species string

const (
	SpeciesDog   Species = "dog"
	SpeciesCat   Species = "cat"
	SpeciesOther Species = "other"
)

// WeightUnit define la unidad de peso.
// @Enum kg, lb
type WeightUnit string

const (
	WeightKilograms WeightUnit = "kg"
	WeightPounds    WeightUnit = "lb"
)

// ScheduleKind clasifica los recordatorios programables.
type ScheduleKind string

const (
	ScheduleInsulin    ScheduleKind = "insulin"
	ScheduleFeeding    ScheduleKind = "feeding"
	ScheduleMedication ScheduleKind = "medication"
)
