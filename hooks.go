package scpi

// Request describes a resolved command as it enters dispatch. Hooks
// receive it read-only; mutating it has no effect on execution.
type Request struct {
	// Name is the canonical spelling of the matched command.
	Name string
	// Query reports whether the query form was addressed.
	Query bool
	// Args are the decoded arguments.
	Args []Value
	// Offset is the byte offset of the command in the input buffer.
	Offset int
}

// PreHook runs before a handler executes. Returning false cancels the
// dispatch; the command then produces neither a response nor an error
// record.
type PreHook func(req Request) bool

// PostHook runs after a handler completes. rec is nil when the command
// succeeded.
type PostHook func(req Request, rec *Record)

// AddPreHook registers a hook that runs before every dispatch, in
// registration order. Not safe to call while Exec is running.
func (in *Interpreter) AddPreHook(h PreHook) {
	in.preHooks = append(in.preHooks, h)
}

// AddPostHook registers a hook that runs after every dispatch.
func (in *Interpreter) AddPostHook(h PostHook) {
	in.postHooks = append(in.postHooks, h)
}

func (in *Interpreter) runPreHooks(req Request) bool {
	for _, h := range in.preHooks {
		if !h(req) {
			return false
		}
	}
	return true
}

func (in *Interpreter) runPostHooks(req Request, rec *Record) {
	for _, h := range in.postHooks {
		h(req, rec)
	}
}
