package service

import (
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	jsonschema "github.com/santhosh-tekuri/jsonschema/v5"

	"todo-keeper/internal/model"
)

//go:embed schema/tasks.schema.json
var tasksSchemaJSON string

var tasksSchema = jsonschema.MustCompileString("tasks.schema.json", tasksSchemaJSON)

func encodeTasks(list *model.TaskList) (string, error) {
	data, err := json.Marshal(list)
	if err != nil {
		return "", fmt.Errorf("encode tasks: %w", err)
	}
	return string(data), nil
}

// decodeTasks parses a persisted task mapping. A JSON null counts as an empty list.
func decodeTasks(raw string) (*model.TaskList, error) {
	var doc interface{}
	if err := json.Unmarshal([]byte(raw), &doc); err != nil {
		return nil, fmt.Errorf("decode tasks: %w", err)
	}
	if doc == nil {
		return model.NewTaskList(), nil
	}
	if err := tasksSchema.Validate(doc); err != nil {
		return nil, fmt.Errorf("decode tasks: %w", schemaError(err))
	}

	list := model.NewTaskList()
	if err := json.Unmarshal([]byte(raw), list); err != nil {
		return nil, fmt.Errorf("decode tasks: %w", err)
	}
	return list, nil
}

// schemaError flattens a validation error to its first leaf cause.
func schemaError(err error) error {
	var ve *jsonschema.ValidationError
	if !errors.As(err, &ve) {
		return err
	}
	for len(ve.Causes) > 0 {
		ve = ve.Causes[0]
	}
	location := ve.InstanceLocation
	if location == "" {
		location = "/"
	}
	return fmt.Errorf("invalid payload at %s: %s", location, ve.Message)
}

// encodeCategory stores the active category as a boolean, true meaning Work.
func encodeCategory(category model.Category) string {
	if category == model.CategoryTravel {
		return "false"
	}
	return "true"
}

// decodeCategory accepts the boolean form, the category name, or null.
func decodeCategory(raw string) (model.Category, error) {
	var value interface{}
	if err := json.Unmarshal([]byte(raw), &value); err != nil {
		return "", fmt.Errorf("decode active category: %w", err)
	}
	switch v := value.(type) {
	case nil:
		return model.DefaultCategory, nil
	case bool:
		if v {
			return model.CategoryWork, nil
		}
		return model.CategoryTravel, nil
	case string:
		category := model.Category(strings.TrimSpace(v))
		if !category.Valid() {
			return "", fmt.Errorf("decode active category: unknown value %q", v)
		}
		return category, nil
	default:
		return "", fmt.Errorf("decode active category: unexpected %T", value)
	}
}
