package core

// Service is a catalog entry offered by the studio. The schedule form
// fills price and duration from here when a service is picked.
type Service struct {
	Name        string
	Price       Money
	DurationMin int
}

var Services = []Service{
	{Name: "Molde F1 Completo", Price: Money{Cents: 8000}, DurationMin: 60},
	{Name: "Unhas em Gel", Price: Money{Cents: 4500}, DurationMin: 90},
	{Name: "Manicure", Price: Money{Cents: 2500}, DurationMin: 45},
	{Name: "Pedicure", Price: Money{Cents: 3000}, DurationMin: 60},
	{Name: "Escova", Price: Money{Cents: 3500}, DurationMin: 30},
}

// ServiceByName looks up a catalog entry.
func ServiceByName(name string) (Service, bool) {
	for _, s := range Services {
		if s.Name == name {
			return s, true
		}
	}
	return Service{}, false
}
