package api

import "time"

// BankAccount is one destination of a business employee's pay.
// PayPercentage is a decimal string in (0, 1].
type BankAccount struct {
	AccountID     string `json:"accountId"`
	RoutingNumber string `json:"routingNumber"`
	PayPercentage string `json:"payPercentage"`
}

type BusinessEmployee struct {
	ID           string        `json:"id"`
	Name         string        `json:"name"`
	Email        string        `json:"email"`
	BankAccounts []BankAccount `json:"bankAccounts"`
}

type CreateBusinessEmployeeRequest struct {
	Name         string        `json:"name"`
	Email        string        `json:"email"`
	BankAccounts []BankAccount `json:"bankAccounts"`
}

type CreateBusinessEmployeeResponse struct {
	BusinessEmployee *BusinessEmployee `json:"businessEmployee,omitempty"`
	Errors           []FieldError      `json:"errors,omitempty"`
}

type GetBusinessEmployeeRequest struct {
	BusinessEmployeeID string `json:"businessEmployeeId"`
}

type GetBusinessEmployeeResponse struct {
	BusinessEmployee *BusinessEmployee `json:"businessEmployee"`
}

// UpdateBusinessEmployeeRequest replaces the employee's name, email and
// complete set of bank accounts.
type UpdateBusinessEmployeeRequest struct {
	BusinessEmployeeID string        `json:"businessEmployeeId"`
	Name               string        `json:"name"`
	Email              string        `json:"email"`
	BankAccounts       []BankAccount `json:"bankAccounts"`
}

type UpdateBusinessEmployeeResponse struct {
	BusinessEmployee *BusinessEmployee `json:"businessEmployee,omitempty"`
	Errors           []FieldError      `json:"errors,omitempty"`
}

type DeleteBusinessEmployeeRequest struct {
	BusinessEmployeeID string `json:"businessEmployeeId"`
}

type DeleteBusinessEmployeeResponse struct{}

// Employee is the wire form of a directory employee. Salary is a decimal string.
type Employee struct {
	ID         string    `json:"id"`
	FirstName  string    `json:"firstName"`
	LastName   string    `json:"lastName"`
	Email      string    `json:"email"`
	Department string    `json:"department"`
	Salary     string    `json:"salary"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

type CreateEmployeeRequest struct {
	FirstName  string `json:"firstName"`
	LastName   string `json:"lastName"`
	Email      string `json:"email"`
	Department string `json:"department"`
	Salary     string `json:"salary"`
}

type CreateEmployeeResponse struct {
	Employee *Employee   `json:"employee,omitempty"`
	Errors   []FieldError `json:"errors,omitempty"`
}

type GetEmployeeRequest struct {
	EmployeeID string `json:"employeeId"`
}

type GetEmployeeResponse struct {
	Employee *Employee `json:"employee"`
}

type ListEmployeesRequest struct {
	Limit  int    `json:"limit"`
	Cursor string `json:"cursor"`
}

type ListEmployeesResponse struct {
	Employees  []*Employee `json:"employees"`
	NextCursor string      `json:"nextCursor,omitempty"`
}

type UpdateEmployeeRequest struct {
	EmployeeID string `json:"employeeId"`
	FirstName  string `json:"firstName"`
	LastName   string `json:"lastName"`
	Email      string `json:"email"`
	Department string `json:"department"`
	Salary     string `json:"salary"`
}

type UpdateEmployeeResponse struct {
	Employee *Employee   `json:"employee,omitempty"`
	Errors   []FieldError `json:"errors,omitempty"`
}

type DeleteEmployeeRequest struct {
	EmployeeID string `json:"employeeId"`
}

type DeleteEmployeeResponse struct{}
