// SPDX-License-Identifier: GPL-3.0-or-later
package notmuch

// BeginAtomic starts an atomic section. Sections nest; changes become
// visible when the outermost section ends.
func (db *Database) BeginAtomic() error {
	return db.check("database_begin_atomic", db.lib.DatabaseBeginAtomic(db.ptr()))
}

func (db *Database) EndAtomic() error {
	return db.check("database_end_atomic", db.lib.DatabaseEndAtomic(db.ptr()))
}

// AtomicSection is an open atomic section.
type AtomicSection struct {
	db   *Database
	done bool
}

// Atomic begins a section to be ended with End, usually deferred.
func (db *Database) Atomic() (*AtomicSection, error) {
	if err := db.BeginAtomic(); err != nil {
		return nil, err
	}
	return &AtomicSection{db: db}, nil
}

// End ends the section. Only the first call has an effect.
func (s *AtomicSection) End() error {
	if s.done {
		return nil
	}
	s.done = true
	return s.db.EndAtomic()
}

// WithAtomic runs fn inside an atomic section that is ended however fn
// returns.
func (db *Database) WithAtomic(fn func() error) (err error) {
	s, err := db.Atomic()
	if err != nil {
		return err
	}
	defer func() {
		if endErr := s.End(); err == nil {
			err = endErr
		}
	}()
	return fn()
}
