package grpc

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/reflect/protoreflect"
	"google.golang.org/protobuf/types/dynamicpb"

	"github.com/getmockd/mockd-contract/pkg/contract"
	"github.com/getmockd/mockd-contract/pkg/validation"
)

const (
	maxDepth = 3

	// exampleEpoch is 2024-01-15T10:30:00Z.
	exampleEpoch = 1705314600
)

// Example synthesizes a response message for op from its output type.
func (d *Document) Example(op contract.Operation, _ *contract.Request) (*contract.Response, bool) {
	m, ok := d.byID[op.ID]
	if !ok {
		return nil, false
	}
	msg := dynamicpb.NewMessage(m.desc.Output())
	populate(msg, 0)

	body, err := messageToJSON(msg)
	if err != nil {
		return nil, false
	}
	return &contract.Response{
		Status:  http.StatusOK,
		Headers: map[string]string{"Content-Type": "application/json"},
		Body:    body,
	}, true
}

// ValidateRequest decodes the JSON body into the RPC's input message.
func (d *Document) ValidateRequest(_ context.Context, op contract.Operation, _ map[string]string, req *contract.Request) *validation.Result {
	m, ok := d.byID[op.ID]
	if !ok {
		return validation.Valid()
	}
	return decodeInto(m.desc.Input(), validation.LocationBody, req.Body)
}

// ValidateResponse decodes the JSON body into the RPC's output message.
func (d *Document) ValidateResponse(_ context.Context, op contract.Operation, _ map[string]string, _ *contract.Request, resp *contract.Response) *validation.Result {
	m, ok := d.byID[op.ID]
	if !ok {
		return validation.Valid()
	}
	return decodeInto(m.desc.Output(), validation.LocationResponse, resp.Body)
}

func decodeInto(md protoreflect.MessageDescriptor, location string, body any) *validation.Result {
	result := validation.Valid()
	var data []byte
	switch b := body.(type) {
	case nil:
		return result
	case string:
		// Binary gRPC frames are not inspected.
		result.AddWarning(&validation.FieldError{
			Location: location,
			Code:     validation.ErrCodeSchema,
			Message:  "body is not JSON; skipped message validation",
		})
		return result
	default:
		var err error
		if data, err = json.Marshal(b); err != nil {
			result.AddError(validation.NewInvalidJSONError(err.Error()))
			return result
		}
	}

	if err := protojson.Unmarshal(data, dynamicpb.NewMessage(md)); err != nil {
		result.AddError(protoError(err, location, md))
	}
	return result
}

func protoError(err error, location string, md protoreflect.MessageDescriptor) *validation.FieldError {
	msg := err.Error()
	if i := strings.Index(msg, "unknown field "); i >= 0 {
		field := strings.Trim(msg[i+len("unknown field "):], `"`)
		return &validation.FieldError{
			Field:    field,
			Location: location,
			Code:     validation.ErrCodeUnknownField,
			Message:  fmt.Sprintf("%s has no field %q", md.FullName(), field),
			Hint:     "Remove the field or add it to the message definition",
		}
	}
	return validation.NewSchemaError("", location, fmt.Sprintf("does not decode as %s: %s", md.FullName(), msg))
}

func messageToJSON(msg protoreflect.ProtoMessage) (any, error) {
	data, err := protojson.Marshal(msg)
	if err != nil {
		return nil, err
	}
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return nil, err
	}
	return v, nil
}

// populate fills msg deterministically: one element per repeated field, the
// first member of each oneof, nested messages down to maxDepth. Map fields
// stay empty.
func populate(msg protoreflect.Message, depth int) {
	md := msg.Descriptor()
	switch md.FullName() {
	case "google.protobuf.Timestamp":
		msg.Set(md.Fields().ByName("seconds"), protoreflect.ValueOfInt64(exampleEpoch))
		return
	case "google.protobuf.Duration":
		msg.Set(md.Fields().ByName("seconds"), protoreflect.ValueOfInt64(1))
		return
	}
	if strings.HasPrefix(string(md.FullName()), "google.protobuf.") {
		return
	}

	oneofs := make(map[protoreflect.FullName]bool)
	fields := md.Fields()
	for i := 0; i < fields.Len(); i++ {
		fd := fields.Get(i)
		if oo := fd.ContainingOneof(); oo != nil && !oo.IsSynthetic() {
			if oneofs[oo.FullName()] {
				continue
			}
			oneofs[oo.FullName()] = true
		}
		switch {
		case fd.IsMap():
			continue
		case fd.Kind() == protoreflect.MessageKind || fd.Kind() == protoreflect.GroupKind:
			if depth >= maxDepth {
				continue
			}
			if fd.IsList() {
				list := msg.Mutable(fd).List()
				elem := list.NewElement()
				populate(elem.Message(), depth+1)
				list.Append(elem)
			} else {
				populate(msg.Mutable(fd).Message(), depth+1)
			}
		case fd.IsList():
			msg.Mutable(fd).List().Append(scalar(fd))
		default:
			msg.Set(fd, scalar(fd))
		}
	}
}

func scalar(fd protoreflect.FieldDescriptor) protoreflect.Value {
	switch fd.Kind() {
	case protoreflect.BoolKind:
		return protoreflect.ValueOfBool(true)
	case protoreflect.EnumKind:
		values := fd.Enum().Values()
		for i := 0; i < values.Len(); i++ {
			if v := values.Get(i); v.Number() != 0 {
				return protoreflect.ValueOfEnum(v.Number())
			}
		}
		return protoreflect.ValueOfEnum(values.Get(0).Number())
	case protoreflect.Int32Kind, protoreflect.Sint32Kind, protoreflect.Sfixed32Kind:
		return protoreflect.ValueOfInt32(1)
	case protoreflect.Int64Kind, protoreflect.Sint64Kind, protoreflect.Sfixed64Kind:
		return protoreflect.ValueOfInt64(1)
	case protoreflect.Uint32Kind, protoreflect.Fixed32Kind:
		return protoreflect.ValueOfUint32(1)
	case protoreflect.Uint64Kind, protoreflect.Fixed64Kind:
		return protoreflect.ValueOfUint64(1)
	case protoreflect.FloatKind:
		return protoreflect.ValueOfFloat32(1.5)
	case protoreflect.DoubleKind:
		return protoreflect.ValueOfFloat64(1.5)
	case protoreflect.BytesKind:
		return protoreflect.ValueOfBytes([]byte(fd.Name()))
	default:
		return protoreflect.ValueOfString(stringFor(string(fd.Name())))
	}
}

func stringFor(name string) string {
	lower := strings.ToLower(name)
	switch {
	case lower == "id" || strings.HasSuffix(lower, "_id"):
		return name + "-1"
	case strings.Contains(lower, "email"):
		return "user@example.com"
	case lower == "name" || strings.HasSuffix(lower, "_name"):
		return "Jane Smith"
	case strings.Contains(lower, "url"):
		return "https://example.com"
	}
	return name
}
