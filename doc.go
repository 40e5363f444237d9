// Package scpi implements a SCPI (Standard Commands for Programmable
// Instruments) command interpreter: a colon-delimited,
// abbreviation-tolerant command hierarchy dispatched against
// statically-typed handlers.
//
// # Architecture
//
// The interpreter is assembled from several cooperating components:
//
//   - Command Tree: an immutable hierarchy built once by a Builder from
//     mixed-case command specifications and validated for unambiguous
//     abbreviation before first use
//   - Matcher: resolves each colon-segment case-insensitively against
//     long and short keyword forms; "*" common commands resolve at the
//     root without traversal
//   - Token Scanner: splits an input buffer into commands, headers and
//     argument tokens, resynchronizing after malformed commands
//   - Argument Decoder: converts raw tokens into a typed tuple matching
//     the handler's declared parameter tags
//   - Dispatcher: invokes handlers one at a time, waiting out cooperative
//     suspensions so responses keep arrival order
//   - Response Encoder: serializes return values incrementally into the
//     caller-supplied output sink
//   - Error Translator: folds every failure into a closed taxonomy and
//     hands it to the reporting collaborator
//
// # Usage
//
//	b := scpi.NewBuilder()
//	b.Add("MATH:MULTiply?", func(ctx *scpi.Context, args []scpi.Value) scpi.Result {
//	    return scpi.OK(scpi.Float(args[0].AsFloat() * args[1].AsFloat()))
//	}, scpi.Param{Type: scpi.TypeFloat}, scpi.Param{Type: scpi.TypeFloat})
//	b.StandardCommands()
//
//	tree, err := b.Build()
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	in := scpi.New(tree, scpi.WithIdentity(scpi.Identity{Manufacturer: "ACME"}))
//	var out bytes.Buffer
//	in.Exec([]byte("MATH:MULT? 23,42\n"), &out) // out: "966\n"
//
// # Concurrency
//
// One interpreter serves one command stream on one goroutine. Handlers
// never run concurrently; a handler may suspend by returning a Pending
// result, which parks the stream until the completion arrives while the
// rest of the process keeps running. The command Tree is immutable after
// Build and safe to share between interpreters.
package scpi
