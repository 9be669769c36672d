// Package parser turns raw JSON text into the ordered value tree the
// analyzer consumes.
package parser

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	stderrors "errors" // Standard errors package

	"github.com/mcncl/pastecs/internal/errors"
	"github.com/mcncl/pastecs/internal/models"
)

// DefaultMaxDepth bounds JSON nesting. The walk below recurses once per
// nesting level, so a pathological document would otherwise exhaust the
// stack instead of failing cleanly.
const DefaultMaxDepth = 500

// Parse converts JSON data from an io.Reader into a value tree, preserving
// object key order.
func Parse(reader io.Reader) (models.JSONValue, error) {
	return ParseWithDepth(reader, DefaultMaxDepth)
}

// ParseWithDepth is Parse with an explicit nesting limit.
func ParseWithDepth(reader io.Reader, maxDepth int) (models.JSONValue, error) {
	if maxDepth <= 0 {
		maxDepth = DefaultMaxDepth
	}

	decoder := json.NewDecoder(reader)
	decoder.UseNumber() // Ensure numbers are read as json.Number

	// EOF on the very first token means empty input. Deeper in the
	// document it means truncation, which wrapDecodeError handles: the
	// decoder reports bare io.EOF for some truncated inputs.
	firstToken, err := decoder.Token()
	if err != nil {
		if stderrors.Is(err, io.EOF) {
			return nil, errors.NewParsingError("input is empty or contains only whitespace", errors.ErrEmptyInput)
		}
		return nil, wrapDecodeError(err)
	}

	root, err := parseToken(decoder, firstToken, 0, maxDepth)
	if err != nil {
		return nil, wrapDecodeError(err)
	}

	// Anything after the first JSON value makes the input ambiguous.
	if _, err := decoder.Token(); err != io.EOF {
		if err != nil {
			return nil, errors.NewParsingError("invalid trailing data after first JSON value", err)
		}
		return nil, errors.NewParsingError("multiple JSON values found at the root", errors.ErrMultipleJSON)
	}

	return root, nil
}

// parseValue reads one complete JSON value from the decoder.
//
// The standard decoder is used at token level rather than via Decode because
// decoding into map[string]interface{} loses object key order, and the
// emitted field order must mirror the source document.
func parseValue(decoder *json.Decoder, depth, maxDepth int) (models.JSONValue, error) {
	token, err := decoder.Token()
	if err != nil {
		return nil, err
	}
	return parseToken(decoder, token, depth, maxDepth)
}

func parseToken(decoder *json.Decoder, token json.Token, depth, maxDepth int) (models.JSONValue, error) {
	switch t := token.(type) {
	case json.Delim:
		if depth+1 > maxDepth {
			return nil, errors.NewParsingError(
				fmt.Sprintf("nesting deeper than %d levels", maxDepth),
				errors.ErrMaxDepthExceeded,
			)
		}
		switch t {
		case '{':
			return parseObject(decoder, depth+1, maxDepth)
		case '[':
			return parseArray(decoder, depth+1, maxDepth)
		default:
			// Unbalanced '}' or ']' surfaces from the decoder as a syntax
			// error before we ever see it here.
			return nil, errors.NewParsingError(fmt.Sprintf("unexpected delimiter %q", t.String()), errors.ErrInvalidJSON)
		}
	default:
		// string, bool, json.Number or nil
		return t, nil
	}
}

func parseObject(decoder *json.Decoder, depth, maxDepth int) (models.JSONValue, error) {
	obj := models.NewJSONObject()
	for decoder.More() {
		keyToken, err := decoder.Token()
		if err != nil {
			return nil, err
		}
		key, ok := keyToken.(string)
		if !ok {
			return nil, errors.NewParsingError(fmt.Sprintf("object key is not a string: %v", keyToken), errors.ErrInvalidJSON)
		}

		value, err := parseValue(decoder, depth, maxDepth)
		if err != nil {
			return nil, err
		}
		// Duplicate keys keep their first position; the last value wins.
		obj.Set(key, value)
	}
	// Consume the closing '}'.
	if _, err := decoder.Token(); err != nil {
		return nil, err
	}
	return obj, nil
}

func parseArray(decoder *json.Decoder, depth, maxDepth int) (models.JSONValue, error) {
	arr := make(models.JSONArray, 0)
	for decoder.More() {
		value, err := parseValue(decoder, depth, maxDepth)
		if err != nil {
			return nil, err
		}
		arr = append(arr, value)
	}
	// Consume the closing ']'.
	if _, err := decoder.Token(); err != nil {
		return nil, err
	}
	return arr, nil
}

// wrapDecodeError maps decoder failures onto the application error types.
func wrapDecodeError(err error) error {
	var appErr *errors.AppError
	if stderrors.As(err, &appErr) {
		return err // already wrapped (depth limit, bad key)
	}
	var syntaxError *json.SyntaxError
	if stderrors.As(err, &syntaxError) {
		return errors.NewParsingError(
			fmt.Sprintf("JSON syntax error at offset %d", syntaxError.Offset),
			errors.ErrInvalidJSON,
		)
	}
	if stderrors.Is(err, io.ErrUnexpectedEOF) || stderrors.Is(err, io.EOF) {
		return errors.NewParsingError("unexpected end of JSON input", errors.ErrInvalidJSON)
	}
	return errors.NewParsingError("failed to decode JSON", err)
}

// ParseString parses JSON from a string
func ParseString(jsonString string) (models.JSONValue, error) {
	return ParseStringWithDepth(jsonString, DefaultMaxDepth)
}

// ParseStringWithDepth parses JSON from a string with an explicit nesting limit
func ParseStringWithDepth(jsonString string, maxDepth int) (models.JSONValue, error) {
	// TrimSpace is important here because an empty string reader will give io.EOF
	// to the decoder, but a string with only spaces might not, depending on the
	// decoder's behavior.
	if strings.TrimSpace(jsonString) == "" {
		return nil, errors.NewInputError("input string is empty", errors.ErrEmptyInput)
	}
	reader := strings.NewReader(jsonString)
	return ParseWithDepth(reader, maxDepth)
}

// ParseFile parses JSON from a file path
func ParseFile(filePath string) (models.JSONValue, error) {
	return ParseFileWithDepth(filePath, DefaultMaxDepth)
}

// ParseFileWithDepth parses JSON from a file path with an explicit nesting limit
func ParseFileWithDepth(filePath string, maxDepth int) (models.JSONValue, error) {
	if strings.TrimSpace(filePath) == "" {
		return nil, errors.NewInputError("file path is empty", errors.ErrInvalidFilePath)
	}
	file, err := os.Open(filePath)
	if err != nil {
		// Check if the file doesn't exist
		if os.IsNotExist(err) {
			return nil, errors.NewInputError(
				fmt.Sprintf("file '%s' not found", filePath),
				errors.ErrFileNotFound,
			)
		}
		return nil, errors.NewInputError(
			fmt.Sprintf("failed to open file '%s'", filePath),
			err,
		)
	}
	defer func() {
		if err := file.Close(); err != nil {
			fmt.Fprintf(os.Stderr, "Error closing file: %v\n", err)
		}
	}()

	// Check for empty file before parsing
	stat, err := file.Stat()
	if err != nil {
		return nil, errors.NewInputError(
			fmt.Sprintf("failed to get file stats for '%s'", filePath),
			err,
		)
	}
	if stat.Size() == 0 {
		return nil, errors.NewInputError(
			fmt.Sprintf("input file '%s' is empty", filePath),
			errors.ErrFileEmpty,
		)
	}

	return ParseWithDepth(file, maxDepth)
}
