package company

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"sync"

	"github.com/bimmerbailey/aura/internal/storage"
)

// Storage keys.
const (
	KeyCompanies = "aura.companies"
	KeySelected  = "aura.selected_company"
)

// Repository loads and persists the company list. Every mutation is a
// read-modify-write of the whole list under one lock.
type Repository struct {
	store  storage.Store
	logger *slog.Logger
	mu     sync.Mutex
}

// NewRepository returns a repository over store.
func NewRepository(store storage.Store, logger *slog.Logger) (*Repository, error) {
	if store == nil {
		return nil, errors.New("store cannot be nil")
	}
	if logger == nil {
		return nil, errors.New("logger cannot be nil")
	}
	return &Repository{store: store, logger: logger}, nil
}

// List returns the stored companies, seeding the store when the value is
// absent or cannot be decoded.
func (r *Repository) List(ctx context.Context) ([]Company, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.load(ctx)
}

func (r *Repository) load(ctx context.Context) ([]Company, error) {
	data, err := r.store.Get(ctx, KeyCompanies)
	switch {
	case errors.Is(err, storage.ErrNotFound):
		r.logger.Info("no stored companies, seeding defaults")
		return r.seed(ctx)
	case err != nil:
		return nil, fmt.Errorf("loading companies: %w", err)
	}

	var companies []Company
	if err := json.Unmarshal(data, &companies); err != nil || len(companies) == 0 {
		r.logger.Warn("stored companies unreadable, seeding defaults", "error", err)
		return r.seed(ctx)
	}
	return companies, nil
}

func (r *Repository) seed(ctx context.Context) ([]Company, error) {
	companies := Seed()
	if err := r.save(ctx, companies); err != nil {
		return nil, err
	}
	return companies, nil
}

// Save replaces the stored list.
func (r *Repository) Save(ctx context.Context, companies []Company) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.save(ctx, companies)
}

func (r *Repository) save(ctx context.Context, companies []Company) error {
	data, err := json.Marshal(companies)
	if err != nil {
		return fmt.Errorf("encoding companies: %w", err)
	}
	if err := r.store.Set(ctx, KeyCompanies, data); err != nil {
		return fmt.Errorf("saving companies: %w", err)
	}
	r.logger.Debug("saved companies", "count", len(companies))
	return nil
}

// update runs fn on the loaded list and persists the result.
func (r *Repository) update(ctx context.Context, fn func([]Company) ([]Company, error)) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	companies, err := r.load(ctx)
	if err != nil {
		return err
	}
	companies, err = fn(companies)
	if err != nil {
		return err
	}
	return r.save(ctx, companies)
}

// Find resolves ref as a company id or a case-insensitive name.
func (r *Repository) Find(ctx context.Context, ref string) (Company, error) {
	companies, err := r.List(ctx)
	if err != nil {
		return Company{}, err
	}
	if i := indexOf(companies, ref); i >= 0 {
		return companies[i], nil
	}
	return Company{}, fmt.Errorf("%w: %s", ErrCompanyNotFound, ref)
}

// Selected returns the selected company, falling back to the first one
// when nothing valid is selected.
func (r *Repository) Selected(ctx context.Context) (Company, error) {
	companies, err := r.List(ctx)
	if err != nil {
		return Company{}, err
	}

	data, err := r.store.Get(ctx, KeySelected)
	if err != nil && !errors.Is(err, storage.ErrNotFound) {
		return Company{}, fmt.Errorf("loading selected company: %w", err)
	}
	if id, ok := parseID(string(data)); ok {
		for _, c := range companies {
			if c.ID == id {
				return c, nil
			}
		}
	}
	return companies[0], nil
}

// Select makes the company identified by ref the selected one.
func (r *Repository) Select(ctx context.Context, ref string) (Company, error) {
	c, err := r.Find(ctx, ref)
	if err != nil {
		return Company{}, err
	}
	if err := r.store.Set(ctx, KeySelected, []byte(strconv.Itoa(c.ID))); err != nil {
		return Company{}, fmt.Errorf("saving selected company: %w", err)
	}
	return c, nil
}

// Add creates a company with the next free id.
func (r *Repository) Add(ctx context.Context, name, logoID string) (Company, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return Company{}, ErrInvalidCompany
	}

	var created Company
	err := r.update(ctx, func(companies []Company) ([]Company, error) {
		id := 1
		for _, c := range companies {
			if c.ID >= id {
				id = c.ID + 1
			}
		}
		created = Company{ID: id, Name: name, LogoID: logoID, Employees: []Employee{}, NextEmployeeID: 1}
		return append(companies, created), nil
	})
	return created, err
}

// Remove deletes the company identified by ref. The last company cannot
// be removed.
func (r *Repository) Remove(ctx context.Context, ref string) error {
	return r.update(ctx, func(companies []Company) ([]Company, error) {
		i := indexOf(companies, ref)
		if i < 0 {
			return nil, fmt.Errorf("%w: %s", ErrCompanyNotFound, ref)
		}
		if len(companies) == 1 {
			return nil, ErrLastCompany
		}
		return append(companies[:i], companies[i+1:]...), nil
	})
}

// AddEmployee appends e to the company and returns it with its new id.
func (r *Repository) AddEmployee(ctx context.Context, companyRef string, e Employee) (Employee, error) {
	if err := e.validate(); err != nil {
		return Employee{}, err
	}
	err := r.update(ctx, func(companies []Company) ([]Company, error) {
		i := indexOf(companies, companyRef)
		if i < 0 {
			return nil, fmt.Errorf("%w: %s", ErrCompanyNotFound, companyRef)
		}
		e.ID = companies[i].nextEmployeeID()
		companies[i].Employees = append(companies[i].Employees, e)
		return companies, nil
	})
	return e, err
}

// UpdateEmployee replaces the name, role and department of the employee
// with e.ID.
func (r *Repository) UpdateEmployee(ctx context.Context, companyRef string, e Employee) error {
	if err := e.validate(); err != nil {
		return err
	}
	return r.update(ctx, func(companies []Company) ([]Company, error) {
		i := indexOf(companies, companyRef)
		if i < 0 {
			return nil, fmt.Errorf("%w: %s", ErrCompanyNotFound, companyRef)
		}
		existing, ok := companies[i].Employee(e.ID)
		if !ok {
			return nil, fmt.Errorf("%w: %d", ErrEmployeeNotFound, e.ID)
		}
		*existing = e
		return companies, nil
	})
}

// RemoveEmployee deletes an employee. Its id is not handed out again.
func (r *Repository) RemoveEmployee(ctx context.Context, companyRef string, employeeID int) error {
	return r.update(ctx, func(companies []Company) ([]Company, error) {
		i := indexOf(companies, companyRef)
		if i < 0 {
			return nil, fmt.Errorf("%w: %s", ErrCompanyNotFound, companyRef)
		}
		c := &companies[i]
		for j, e := range c.Employees {
			if e.ID == employeeID {
				c.syncNextID()
				c.Employees = append(c.Employees[:j], c.Employees[j+1:]...)
				return companies, nil
			}
		}
		return nil, fmt.Errorf("%w: %d", ErrEmployeeNotFound, employeeID)
	})
}

func indexOf(companies []Company, ref string) int {
	if id, ok := parseID(ref); ok {
		for i, c := range companies {
			if c.ID == id {
				return i
			}
		}
	}
	for i, c := range companies {
		if strings.EqualFold(c.Name, strings.TrimSpace(ref)) {
			return i
		}
	}
	return -1
}

func parseID(s string) (int, bool) {
	id, err := strconv.Atoi(strings.TrimSpace(s))
	return id, err == nil
}
