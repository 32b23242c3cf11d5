package domain

// Department enumerates the fixed set of organizational units an employee
// can belong to.
type Department string

const (
	DepartmentEngineering Department = "ENGINEERING"
	DepartmentSales       Department = "SALES"
	DepartmentMarketing   Department = "MARKETING"
	DepartmentFinance     Department = "FINANCE"
	DepartmentHR          Department = "HR"
	DepartmentOperations  Department = "OPERATIONS"
)

var departments = map[Department]struct{}{
	DepartmentEngineering: {},
	DepartmentSales:       {},
	DepartmentMarketing:   {},
	DepartmentFinance:     {},
	DepartmentHR:          {},
	DepartmentOperations:  {},
}

// ValidDepartment reports whether d belongs to the fixed set.
func ValidDepartment(d Department) bool {
	_, ok := departments[d]
	return ok
}
