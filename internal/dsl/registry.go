package dsl

import "sort"

// ParamKind: ожидаемый вид параметра аннотации
type ParamKind int

const (
	ParamNone ParamKind = iota
	ParamInteger
	ParamDecimal
	ParamString
	ParamBoolean
	ParamSize
	ParamFK
	ParamList
)

var paramKindNames = [...]string{"NONE", "INTEGER", "DECIMAL", "STRING", "BOOLEAN", "SIZE", "FK", "LIST"}

func (k ParamKind) String() string {
	if int(k) < len(paramKindNames) {
		return paramKindNames[k]
	}
	return "UNKNOWN"
}

// Scope: где аннотация допустима
type Scope uint8

const (
	ScopeField Scope = 1 << iota
	ScopeEntity
)

type AnnotationDef struct {
	Name  string
	Kind  ParamKind
	Scope Scope
	// только для числовых нейтральных типов (@Min, @Max)
	NumericOnly bool
}

// Registry: таблица имя -> вид параметра. После NewRegistry не меняется,
// поэтому одну копию можно читать из нескольких горутин.
type Registry struct {
	defs map[string]AnnotationDef
}

func NewRegistry(defs ...AnnotationDef) *Registry {
	r := &Registry{defs: make(map[string]AnnotationDef, len(defs))}
	for _, d := range defs {
		r.defs[d.Name] = d
	}
	return r
}

func (r *Registry) Lookup(name string) (AnnotationDef, bool) {
	d, ok := r.defs[name]
	return d, ok
}

func (r *Registry) Names() []string {
	out := make([]string, 0, len(r.defs))
	for n := range r.defs {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}

var builtinAnnotations = []AnnotationDef{
	// ключи и ограничения
	{Name: "Id", Kind: ParamNone, Scope: ScopeField},
	{Name: "AutoIncremented", Kind: ParamNone, Scope: ScopeField},
	{Name: "NotNull", Kind: ParamNone, Scope: ScopeField},
	{Name: "NotEmpty", Kind: ParamNone, Scope: ScopeField},
	{Name: "NotBlank", Kind: ParamNone, Scope: ScopeField},
	{Name: "Unique", Kind: ParamNone, Scope: ScopeField},
	{Name: "Transient", Kind: ParamNone, Scope: ScopeField},
	{Name: "LongText", Kind: ParamNone, Scope: ScopeField},
	{Name: "Past", Kind: ParamNone, Scope: ScopeField},
	{Name: "Future", Kind: ParamNone, Scope: ScopeField},
	{Name: "ObjectType", Kind: ParamNone, Scope: ScopeField},
	{Name: "PrimitiveType", Kind: ParamNone, Scope: ScopeField},
	{Name: "UnsignedType", Kind: ParamNone, Scope: ScopeField},
	{Name: "Min", Kind: ParamDecimal, Scope: ScopeField, NumericOnly: true},
	{Name: "Max", Kind: ParamDecimal, Scope: ScopeField, NumericOnly: true},
	{Name: "SizeMin", Kind: ParamInteger, Scope: ScopeField},
	{Name: "SizeMax", Kind: ParamInteger, Scope: ScopeField},
	{Name: "Pattern", Kind: ParamString, Scope: ScopeField},
	{Name: "DefaultValue", Kind: ParamString, Scope: ScopeField},
	{Name: "InitialValue", Kind: ParamString, Scope: ScopeField},
	{Name: "Label", Kind: ParamString, Scope: ScopeField},
	{Name: "InputType", Kind: ParamString, Scope: ScopeField},
	{Name: "Insertable", Kind: ParamBoolean, Scope: ScopeField},
	{Name: "Updatable", Kind: ParamBoolean, Scope: ScopeField},

	// база данных
	{Name: "DbName", Kind: ParamString, Scope: ScopeField},
	{Name: "DbType", Kind: ParamString, Scope: ScopeField},
	{Name: "DbSize", Kind: ParamSize, Scope: ScopeField},
	{Name: "DbDefaultValue", Kind: ParamString, Scope: ScopeField},
	{Name: "DbComment", Kind: ParamString, Scope: ScopeField | ScopeEntity},
	{Name: "DbTable", Kind: ParamString, Scope: ScopeEntity},
	{Name: "DbSchema", Kind: ParamString, Scope: ScopeEntity},
	{Name: "DbCatalog", Kind: ParamString, Scope: ScopeEntity},

	// связи
	{Name: "FK", Kind: ParamFK, Scope: ScopeField},
	{Name: "LinkByFK", Kind: ParamString, Scope: ScopeField},
	{Name: "LinkByAttr", Kind: ParamList, Scope: ScopeField},
	{Name: "LinkByCol", Kind: ParamList, Scope: ScopeField},
	{Name: "MappedBy", Kind: ParamString, Scope: ScopeField},
	{Name: "ManyToMany", Kind: ParamNone, Scope: ScopeField},
	{Name: "Optional", Kind: ParamNone, Scope: ScopeField},
	{Name: "Embedded", Kind: ParamNone, Scope: ScopeField},
	{Name: "FetchType", Kind: ParamString, Scope: ScopeField},
	{Name: "Cascade", Kind: ParamList, Scope: ScopeField},

	// уровень сущности
	{Name: "Package", Kind: ParamString, Scope: ScopeEntity},
	{Name: "ReadOnly", Kind: ParamNone, Scope: ScopeEntity},
	{Name: "AggregateRoot", Kind: ParamNone, Scope: ScopeEntity},
	{Name: "Domain", Kind: ParamString, Scope: ScopeEntity},
	{Name: "Context", Kind: ParamString, Scope: ScopeEntity},
	{Name: "JoinEntity", Kind: ParamNone, Scope: ScopeEntity},
	{Name: "Abstract", Kind: ParamNone, Scope: ScopeEntity},
	{Name: "Extends", Kind: ParamString, Scope: ScopeEntity},
}

// строится один раз при инициализации пакета
var defaultRegistry = NewRegistry(builtinAnnotations...)

// DefaultRegistry: встроенная таблица аннотаций
func DefaultRegistry() *Registry { return defaultRegistry }
