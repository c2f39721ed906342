package dao

// Cached layers a private write-back cache on top of another DAO,
// deferring every write until Persist flushes them down. Every DAO method
// not overridden here is forwarded straight to the embedded DAO.
type Cached struct {
	DAO
}

// NewCached wraps d with a fresh private cache.
func NewCached(d DAO) *Cached {
	return &Cached{DAO: d.GetWrapped()}
}

// GetWrapped returns a new Cached layering another private cache on top of
// this one's own wrapped DAO.
func (cd *Cached) GetWrapped() DAO {
	return &Cached{DAO: cd.DAO.GetWrapped()}
}
