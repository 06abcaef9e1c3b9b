package browser

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	cdpruntime "github.com/chromedp/cdproto/runtime"
)

// callFunctionOn calls fn with this bound to the remote object obj.
// Arguments of type cdpruntime.RemoteObjectID are passed by reference,
// everything else is passed as JSON.
func callFunctionOn(ctx context.Context, obj cdpruntime.RemoteObjectID, fn string, byValue bool, args ...any) (*cdpruntime.RemoteObject, error) {
	arguments := make([]*cdpruntime.CallArgument, 0, len(args))
	for _, arg := range args {
		if id, ok := arg.(cdpruntime.RemoteObjectID); ok {
			arguments = append(arguments, &cdpruntime.CallArgument{ObjectID: id})
			continue
		}
		b, err := json.Marshal(arg)
		if err != nil {
			return nil, fmt.Errorf("converting argument '%v': %w", arg, err)
		}
		arguments = append(arguments, &cdpruntime.CallArgument{Value: b})
	}
	res, exc, err := cdpruntime.CallFunctionOn(fn).
		WithObjectID(obj).
		WithArguments(arguments).
		WithReturnByValue(byValue).
		WithAwaitPromise(true).
		Do(ctx)
	if err != nil {
		return nil, err
	}
	if exc != nil {
		return nil, exceptionError(exc)
	}
	return res, nil
}

func evaluate(ctx context.Context, expr string, byValue bool) (*cdpruntime.RemoteObject, error) {
	res, exc, err := cdpruntime.Evaluate(expr).
		WithReturnByValue(byValue).
		WithAwaitPromise(true).
		Do(ctx)
	if err != nil {
		return nil, err
	}
	if exc != nil {
		return nil, exceptionError(exc)
	}
	return res, nil
}

func exceptionError(exc *cdpruntime.ExceptionDetails) error {
	if exc.Exception != nil && exc.Exception.Description != "" {
		return errors.New(exc.Exception.Description)
	}
	return errors.New(exc.Text)
}

// decode unmarshals the value of a remote object returned by value. A
// missing value leaves v untouched.
func decode(obj *cdpruntime.RemoteObject, v any) error {
	if v == nil || obj == nil || len(obj.Value) == 0 {
		return nil
	}
	return json.Unmarshal(obj.Value, v)
}

func release(ctx context.Context, obj *cdpruntime.RemoteObject) {
	if obj == nil || obj.ObjectID == "" {
		return
	}
	_ = cdpruntime.ReleaseObject(obj.ObjectID).Do(ctx)
}

// consoleArg converts a console argument to a Go value. Primitives keep
// their value, objects are represented by their description.
func consoleArg(obj *cdpruntime.RemoteObject) any {
	if obj == nil {
		return nil
	}
	if len(obj.Value) > 0 {
		var v any
		if err := json.Unmarshal(obj.Value, &v); err == nil {
			return v
		}
	}
	if s := obj.UnserializableValue.String(); s != "" {
		return s
	}
	if obj.Description != "" {
		return obj.Description
	}
	return obj.Type.String()
}
