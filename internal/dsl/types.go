package dsl

// нейтральные типы DSL, фиксированный набор
var neutralTypes = []string{
	"string",
	"byte", "short", "int", "long",
	"decimal", "float", "double",
	"boolean",
	"date", "time", "timestamp",
	"datetime", "datetimetz", "timetz",
	"uuid",
	"binary",
}

var (
	neutralSet = toSet(neutralTypes)
	numericSet = toSet([]string{"byte", "short", "int", "long", "decimal", "float", "double"})
)

func toSet(items []string) map[string]struct{} {
	out := make(map[string]struct{}, len(items))
	for _, it := range items {
		out[it] = struct{}{}
	}
	return out
}

func IsNeutralType(name string) bool { _, ok := neutralSet[name]; return ok }
func IsNumericType(name string) bool { _, ok := numericSet[name]; return ok }

func NeutralTypes() []string { return append([]string(nil), neutralTypes...) }

// EntitySet: имена объявленных сущностей (по именам файлов), нужен для forward-ссылок
type EntitySet map[string]struct{}

func NewEntitySet(names ...string) EntitySet {
	return EntitySet(toSet(names))
}

func (s EntitySet) Has(name string) bool { _, ok := s[name]; return ok }
