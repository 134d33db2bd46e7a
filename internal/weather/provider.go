package weather

// Provider describes a forecast endpoint whose response Extract understands.
type Provider interface {
	Name() string
	URL(loc Location) string
}
