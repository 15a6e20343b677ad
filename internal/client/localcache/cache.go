package localcache

import (
	"sync"

	"pet-health-sync/internal/domain/records"
)

// Cache es el mirror local de un device: un subconjunto de las colecciones
// del record store más un flag dirty por fila. Las escrituras de la UI entran
// por Put* (marcan dirty); las del server entran por MergeServer* (last-write
// -wins, dejan la fila limpia porque ya está confirmada server-side).
type Cache struct {
	mu sync.RWMutex

	pets      map[string]records.Pet
	insulin   map[string]records.InsulinLog
	feeding   map[string]records.FeedingLog
	weights   map[string]records.WeightLog
	vetInfos  map[string]records.VetInfo
	schedules map[string]records.Schedule

	dirty map[string]struct{} // "colección/id"
}

const (
	colPets      = "pets"
	colInsulin   = "insulin"
	colFeeding   = "feeding"
	colWeights   = "weights"
	colVetInfos  = "vetinfos"
	colSchedules = "schedules"
)

func New() *Cache {
	return &Cache{
		pets:      make(map[string]records.Pet),
		insulin:   make(map[string]records.InsulinLog),
		feeding:   make(map[string]records.FeedingLog),
		weights:   make(map[string]records.WeightLog),
		vetInfos:  make(map[string]records.VetInfo),
		schedules: make(map[string]records.Schedule),
		dirty:     make(map[string]struct{}),
	}
}

func dirtyKey(col, id string) string { return col + "/" + id }

// --- escrituras locales (UI): guardan y marcan dirty ---

func (c *Cache) PutPet(p records.Pet) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.pets[p.ID] = p
	c.dirty[dirtyKey(colPets, p.ID)] = struct{}{}
}

func (c *Cache) PutInsulinLog(l records.InsulinLog) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.insulin[l.ID] = l
	c.dirty[dirtyKey(colInsulin, l.ID)] = struct{}{}
}

func (c *Cache) PutFeedingLog(l records.FeedingLog) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.feeding[l.ID] = l
	c.dirty[dirtyKey(colFeeding, l.ID)] = struct{}{}
}

func (c *Cache) PutWeightLog(l records.WeightLog) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.weights[l.ID] = l
	c.dirty[dirtyKey(colWeights, l.ID)] = struct{}{}
}

func (c *Cache) PutVetInfo(v records.VetInfo) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.vetInfos[v.ID] = v
	c.dirty[dirtyKey(colVetInfos, v.ID)] = struct{}{}
}

func (c *Cache) PutSchedule(s records.Schedule) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.schedules[s.ID] = s
	c.dirty[dirtyKey(colSchedules, s.ID)] = struct{}{}
}

// --- lecturas ---

func (c *Cache) GetPet(id string) (records.Pet, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	p, ok := c.pets[id]
	return p, ok
}

func (c *Cache) GetInsulinLog(id string) (records.InsulinLog, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	l, ok := c.insulin[id]
	return l, ok
}

func (c *Cache) GetFeedingLog(id string) (records.FeedingLog, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	l, ok := c.feeding[id]
	return l, ok
}

func (c *Cache) GetWeightLog(id string) (records.WeightLog, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	l, ok := c.weights[id]
	return l, ok
}

func (c *Cache) GetVetInfo(id string) (records.VetInfo, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	v, ok := c.vetInfos[id]
	return v, ok
}

func (c *Cache) GetSchedule(id string) (records.Schedule, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	s, ok := c.schedules[id]
	return s, ok
}

// Los chequeos de dirty van por colección: el mismo id puede existir en dos
// colecciones distintas y los flags no deben cruzarse.

func (c *Cache) IsDirtyPet(id string) bool        { return c.isDirty(colPets, id) }
func (c *Cache) IsDirtyInsulinLog(id string) bool { return c.isDirty(colInsulin, id) }
func (c *Cache) IsDirtyFeedingLog(id string) bool { return c.isDirty(colFeeding, id) }
func (c *Cache) IsDirtyWeightLog(id string) bool  { return c.isDirty(colWeights, id) }
func (c *Cache) IsDirtyVetInfo(id string) bool    { return c.isDirty(colVetInfos, id) }
func (c *Cache) IsDirtySchedule(id string) bool   { return c.isDirty(colSchedules, id) }

func (c *Cache) isDirty(col, id string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, ok := c.dirty[dirtyKey(col, id)]
	return ok
}

// DirtyChanges junta todas las filas dirty de una mascota en un ChangeSet
// listo para subir. No limpia los flags: eso pasa recién cuando la ronda
// completa termina bien (MarkSynced).
func (c *Cache) DirtyChanges(petID string) records.ChangeSet {
	c.mu.RLock()
	defer c.mu.RUnlock()

	var out records.ChangeSet

	if p, ok := c.pets[petID]; ok {
		if _, d := c.dirty[dirtyKey(colPets, p.ID)]; d {
			out.Pets = append(out.Pets, p)
		}
	}
	for id, l := range c.insulin {
		if l.PetID != petID {
			continue
		}
		if _, d := c.dirty[dirtyKey(colInsulin, id)]; d {
			out.InsulinLogs = append(out.InsulinLogs, l)
		}
	}
	for id, l := range c.feeding {
		if l.PetID != petID {
			continue
		}
		if _, d := c.dirty[dirtyKey(colFeeding, id)]; d {
			out.FeedingLogs = append(out.FeedingLogs, l)
		}
	}
	for id, l := range c.weights {
		if l.PetID != petID {
			continue
		}
		if _, d := c.dirty[dirtyKey(colWeights, id)]; d {
			out.WeightLogs = append(out.WeightLogs, l)
		}
	}
	for id, v := range c.vetInfos {
		if v.PetID != petID {
			continue
		}
		if _, d := c.dirty[dirtyKey(colVetInfos, id)]; d {
			out.VetInfos = append(out.VetInfos, v)
		}
	}
	for id, s := range c.schedules {
		if s.PetID != petID {
			continue
		}
		if _, d := c.dirty[dirtyKey(colSchedules, id)]; d {
			out.Schedules = append(out.Schedules, s)
		}
	}

	return out
}

// --- merge del delta del server (last-write-wins) ---
//
// Regla global de desempate: gana el LastModified estrictamente mayor; en
// empate se queda la copia local (que se empuja en la próxima ronda si sigue
// dirty). Un record aplicado queda limpio: ya es estado confirmado del server.

func (c *Cache) MergeServerPet(p records.Pet) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if cur, ok := c.pets[p.ID]; ok && !p.LastModified.After(cur.LastModified) {
		return false
	}
	c.pets[p.ID] = p
	delete(c.dirty, dirtyKey(colPets, p.ID))
	return true
}

func (c *Cache) MergeServerInsulinLog(l records.InsulinLog) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if cur, ok := c.insulin[l.ID]; ok && !l.LastModified.After(cur.LastModified) {
		return false
	}
	c.insulin[l.ID] = l
	delete(c.dirty, dirtyKey(colInsulin, l.ID))
	return true
}

func (c *Cache) MergeServerFeedingLog(l records.FeedingLog) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if cur, ok := c.feeding[l.ID]; ok && !l.LastModified.After(cur.LastModified) {
		return false
	}
	c.feeding[l.ID] = l
	delete(c.dirty, dirtyKey(colFeeding, l.ID))
	return true
}

func (c *Cache) MergeServerWeightLog(l records.WeightLog) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if cur, ok := c.weights[l.ID]; ok && !l.LastModified.After(cur.LastModified) {
		return false
	}
	c.weights[l.ID] = l
	delete(c.dirty, dirtyKey(colWeights, l.ID))
	return true
}

func (c *Cache) MergeServerVetInfo(v records.VetInfo) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if cur, ok := c.vetInfos[v.ID]; ok && !v.LastModified.After(cur.LastModified) {
		return false
	}
	c.vetInfos[v.ID] = v
	delete(c.dirty, dirtyKey(colVetInfos, v.ID))
	return true
}

func (c *Cache) MergeServerSchedule(s records.Schedule) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if cur, ok := c.schedules[s.ID]; ok && !s.LastModified.After(cur.LastModified) {
		return false
	}
	c.schedules[s.ID] = s
	delete(c.dirty, dirtyKey(colSchedules, s.ID))
	return true
}

// MarkSynced limpia el flag dirty de todo el set saliente de una ronda
// exitosa. Se llama incondicionalmente tras el merge: el server ya aceptó
// esos writes en el paso 3 aunque no vuelvan en el delta.
// Un Put sobre un record del set saliente hecho DURANTE la ronda (entre
// DirtyChanges y esta llamada) pierde su flag y no viaja hasta el próximo
// Put. Las rondas corren de a una por device; la ventana solo existe si la
// UI escribe en paralelo a una ronda en curso.
func (c *Cache) MarkSynced(sent records.ChangeSet) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, p := range sent.Pets {
		delete(c.dirty, dirtyKey(colPets, p.ID))
	}
	for _, l := range sent.InsulinLogs {
		delete(c.dirty, dirtyKey(colInsulin, l.ID))
	}
	for _, l := range sent.FeedingLogs {
		delete(c.dirty, dirtyKey(colFeeding, l.ID))
	}
	for _, l := range sent.WeightLogs {
		delete(c.dirty, dirtyKey(colWeights, l.ID))
	}
	for _, v := range sent.VetInfos {
		delete(c.dirty, dirtyKey(colVetInfos, v.ID))
	}
	for _, s := range sent.Schedules {
		delete(c.dirty, dirtyKey(colSchedules, s.ID))
	}
}
