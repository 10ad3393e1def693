package machine

// A Native is a host-provided function. Natives live in the same global-slot
// namespace as user globals: they are assigned slots in installation order
// and populated into the machine's global table before execution.
//
// The callable may touch the outside world but must not mutate machine
// internals. It runs without a call frame.
type Native struct {
	Name  string
	Arity uint8
	Fn    func(args []Value) Value
}

func (n *Native) String() string { return "fn " + n.Name }
func (n *Native) Type() string   { return "native" }
