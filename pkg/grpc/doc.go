// Package grpc loads Protocol Buffer service definitions as mock documents.
//
// The spec content is a single .proto file compiled with protocompile. Every
// RPC becomes an operation addressed the way gRPC addresses it on the wire:
//
//	POST /<package>.<Service>/<Method>
//
// Request and response bodies are the protojson form of the input and output
// messages. Validation decodes a body into a dynamic message and reports
// unknown fields and type errors; examples are synthesized from the output
// message descriptor.
//
//	doc, err := grpc.Load(ctx, protoSource)
//	if err != nil {
//	    return err
//	}
//	for _, op := range doc.Operations() {
//	    fmt.Println(op.ID, op.Kind)
//	}
package grpc
