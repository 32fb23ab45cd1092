// Package schema checks the shape of loosely typed data before it is trusted.
//
// It is used on JSON documents decoded into map[string]any, where numbers
// arrive as float64 and arrays as []any:
//
//	envelope := schema.Schema{
//	    "version": schema.Int(),
//	    "storyId": schema.NonEmptyString(),
//	    "history": schema.Slice(schema.String()),
//	}
//
//	if err := schema.Validate(envelope, data); err != nil {
//	    // discard data
//	}
package schema
