package records

import "time"

// Pet es el aggregate root: todos los child records y todas las decisiones
// de acceso se resuelven contra su PetID/OwnerID.
// Borrado lógico vía IsDeleted (tombstone) para que la eliminación se
// propague por el delta de sync; nunca se borra la fila física.
type Pet struct {
	ID      string `json:"id"`
	OwnerID string `json:"owner_id"`

	Name    string  `json:"name"`
	Species Species `json:"species"`
	Breed   string  `json:"breed"`

	// Defaults de tratamiento/alimentación que la UI usa para prellenar logs.
	InsulinType   string     `json:"insulin_type"`
	InsulinUnits  float64    `json:"insulin_units"`
	FeedingAmount string     `json:"feeding_amount"`
	FeedingPerDay int        `json:"feeding_per_day"`
	CurrentWeight float64    `json:"current_weight"`
	WeightUnit    WeightUnit `json:"weight_unit"`

	Notes string `json:"notes"`

	LastModified time.Time `json:"last_modified"`
	IsDeleted    bool      `json:"is_deleted"`
}

// InsulinLog registra una aplicación de insulina.
type InsulinLog struct {
	ID    string `json:"id"`
	PetID string `json:"pet_id"`

	Units       float64   `json:"units"`
	InsulinType string    `json:"insulin_type"`
	Notes       string    `json:"notes"`
	GivenAt     time.Time `json:"given_at"`

	LoggedBy   string `json:"logged_by"`
	LoggedByID string `json:"logged_by_id"`

	LastModified time.Time `json:"last_modified"`
	IsDeleted    bool      `json:"is_deleted"`
}

// FeedingLog registra una comida.
type FeedingLog struct {
	ID    string `json:"id"`
	PetID string `json:"pet_id"`

	Amount   string    `json:"amount"`
	FoodType string    `json:"food_type"`
	Notes    string    `json:"notes"`
	FedAt    time.Time `json:"fed_at"`

	LoggedBy   string `json:"logged_by"`
	LoggedByID string `json:"logged_by_id"`

	LastModified time.Time `json:"last_modified"`
	IsDeleted    bool      `json:"is_deleted"`
}

// WeightLog registra una medición de peso.
type WeightLog struct {
	ID    string `json:"id"`
	PetID string `json:"pet_id"`

	Weight     float64    `json:"weight"`
	Unit       WeightUnit `json:"unit"`
	Notes      string     `json:"notes"`
	MeasuredAt time.Time  `json:"measured_at"`

	LoggedBy   string `json:"logged_by"`
	LoggedByID string `json:"logged_by_id"`

	LastModified time.Time `json:"last_modified"`
	IsDeleted    bool      `json:"is_deleted"`
}

// VetInfo guarda los datos de la clínica veterinaria de la mascota.
// Solo el owner la escribe; guests no la ven.
type VetInfo struct {
	ID    string `json:"id"`
	PetID string `json:"pet_id"`

	ClinicName string `json:"clinic_name"`
	VetName    string `json:"vet_name"`
	Phone      string `json:"phone"`
	Email      string `json:"email"`
	Address    string `json:"address"`
	Notes      string `json:"notes"`

	LoggedBy   string `json:"logged_by"`
	LoggedByID string `json:"logged_by_id"`

	LastModified time.Time `json:"last_modified"`
	IsDeleted    bool      `json:"is_deleted"`
}

// Schedule es un recordatorio programado (insulina, comida o medicación).
type Schedule struct {
	ID    string `json:"id"`
	PetID string `json:"pet_id"`

	Kind      ScheduleKind `json:"kind"`
	Label     string       `json:"label"`
	TimeOfDay string       `json:"time_of_day"` // HH:MM hora local del device
	Enabled   bool         `json:"enabled"`

	LoggedBy   string `json:"logged_by"`
	LoggedByID string `json:"logged_by_id"`

	LastModified time.Time `json:"last_modified"`
	IsDeleted    bool      `json:"is_deleted"`
}
