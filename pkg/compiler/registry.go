package compiler

// PrototypeRegistry records the most recent prototype declared or defined
// for each function name. It is shared across every generation unit of a
// session, which is what lets a call in one unit resolve a function that
// was only materialized in an earlier unit: the callee's declaration is
// re-emitted into the current module from its registered prototype.
//
// Units must be processed one at a time; the registry is not safe for
// concurrent use.
type PrototypeRegistry struct {
	protos map[string]*Prototype
}

func NewPrototypeRegistry() *PrototypeRegistry {
	return &PrototypeRegistry{protos: make(map[string]*Prototype)}
}

// Get returns the registered prototype for name, if any.
func (r *PrototypeRegistry) Get(name string) (*Prototype, bool) {
	p, ok := r.protos[name]
	return p, ok
}

// Insert registers proto under its name, replacing any previous entry.
func (r *PrototypeRegistry) Insert(proto *Prototype) {
	r.protos[proto.Name] = proto
}
