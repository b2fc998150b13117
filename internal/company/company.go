// Package company holds the company and employee aggregate and the
// repository that persists it.
package company

import (
	"errors"
	"strings"
)

// Employee belongs to exactly one company. ID is unique within the company
// and is never reused after deletion.
type Employee struct {
	ID         int    `json:"id" yaml:"id"`
	Name       string `json:"name" yaml:"name"`
	Role       string `json:"role" yaml:"role"`
	Department string `json:"department" yaml:"department"`
}

// Company is the persisted root aggregate.
type Company struct {
	ID        int        `json:"id" yaml:"id"`
	Name      string     `json:"name" yaml:"name"`
	LogoID    string     `json:"logoId" yaml:"logo_id"`
	Employees []Employee `json:"employees" yaml:"employees"`

	// NextEmployeeID is the id the next added employee receives.
	NextEmployeeID int `json:"nextEmployeeId,omitempty" yaml:"-"`
}

var (
	ErrCompanyNotFound  = errors.New("company not found")
	ErrEmployeeNotFound = errors.New("employee not found")
	ErrInvalidEmployee  = errors.New("employee name, role and department are required")
	ErrInvalidCompany   = errors.New("company name is required")
	ErrLastCompany      = errors.New("cannot remove the only company")
)

// Employee returns the employee with the given id.
func (c *Company) Employee(id int) (*Employee, bool) {
	for i := range c.Employees {
		if c.Employees[i].ID == id {
			return &c.Employees[i], true
		}
	}
	return nil, false
}

// FindEmployee resolves ref as an id or a case-insensitive name.
func (c *Company) FindEmployee(ref string) (*Employee, bool) {
	if id, ok := parseID(ref); ok {
		if e, found := c.Employee(id); found {
			return e, true
		}
	}
	for i := range c.Employees {
		if strings.EqualFold(c.Employees[i].Name, strings.TrimSpace(ref)) {
			return &c.Employees[i], true
		}
	}
	return nil, false
}

// syncNextID raises NextEmployeeID above every current employee id.
func (c *Company) syncNextID() {
	if c.NextEmployeeID < 1 {
		c.NextEmployeeID = 1
	}
	for _, e := range c.Employees {
		if e.ID >= c.NextEmployeeID {
			c.NextEmployeeID = e.ID + 1
		}
	}
}

// nextEmployeeID hands out a fresh id and advances the counter.
func (c *Company) nextEmployeeID() int {
	c.syncNextID()
	id := c.NextEmployeeID
	c.NextEmployeeID++
	return id
}

func (e Employee) validate() error {
	if strings.TrimSpace(e.Name) == "" || strings.TrimSpace(e.Role) == "" || strings.TrimSpace(e.Department) == "" {
		return ErrInvalidEmployee
	}
	return nil
}

// Seed returns the default company list used when nothing valid is stored.
func Seed() []Company {
	return []Company{
		{
			ID: 1, Name: "Innovate Corp", LogoID: "A",
			Employees: []Employee{
				{ID: 1, Name: "Alice Johnson", Role: "Software Engineer II", Department: "Engineering"},
				{ID: 2, Name: "Bob Williams", Role: "Senior Product Manager", Department: "Product"},
				{ID: 3, Name: "Charlie Brown", Role: "Marketing Lead", Department: "Marketing"},
			},
			NextEmployeeID: 4,
		},
		{
			ID: 2, Name: "Quantum Solutions", LogoID: "B",
			Employees: []Employee{
				{ID: 4, Name: "Diana Prince", Role: "UX/UI Designer", Department: "Design"},
				{ID: 5, Name: "Ethan Hunt", Role: "Sales Executive", Department: "Sales"},
				{ID: 6, Name: "Fiona Glenanne", Role: "Data Scientist", Department: "Analytics"},
			},
			NextEmployeeID: 7,
		},
		{
			ID: 3, Name: "Starlight Ventures", LogoID: "C",
			Employees: []Employee{
				{ID: 7, Name: "George Costanza", Role: "Architect", Department: "Real Estate"},
				{ID: 8, Name: "Heidi Klum", Role: "Lead Designer", Department: "Fashion"},
			},
			NextEmployeeID: 9,
		},
	}
}
