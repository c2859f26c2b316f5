package payroll

// Category selects which workers a payroll run covers.
type Category int

const (
	// CategoryAll admits every worker. Unknown filter values map here.
	CategoryAll Category = iota
	CategoryRegistered
	CategoryUnregistered
)

const (
	categoryRegisteredValue   = "registrados"
	categoryUnregisteredValue = "nao_registrados"
	categoryAllValue          = "todos"
)

// ParseCategory maps the wire filter to a Category. Only the exact values
// "registrados" and "nao_registrados" filter; anything else, including
// padded or differently cased spellings, means every worker.
func ParseCategory(raw string) Category {
	switch raw {
	case categoryRegisteredValue:
		return CategoryRegistered
	case categoryUnregisteredValue:
		return CategoryUnregistered
	default:
		return CategoryAll
	}
}

func (c Category) String() string {
	switch c {
	case CategoryRegistered:
		return categoryRegisteredValue
	case CategoryUnregistered:
		return categoryUnregisteredValue
	default:
		return categoryAllValue
	}
}

func (c Category) Admits(registered bool) bool {
	switch c {
	case CategoryRegistered:
		return registered
	case CategoryUnregistered:
		return !registered
	default:
		return true
	}
}
