package models

// Module identifies a metered resource category. The set is closed and known
// at compile time; new categories are added by extending this enum.
type Module string

const (
	ModuleUser  Module = "user"
	ModuleEmail Module = "email"
	ModuleTask  Module = "task"
)

// AllModules returns every known module in a stable order
func AllModules() []Module {
	return []Module{ModuleUser, ModuleEmail, ModuleTask}
}

// Valid reports whether m is a known module
func (m Module) Valid() bool {
	switch m {
	case ModuleUser, ModuleEmail, ModuleTask:
		return true
	}
	return false
}

func (m Module) String() string {
	return string(m)
}
