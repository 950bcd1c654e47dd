// Package flagx binds cobra flags to tagged structs
package flagx

import (
	"fmt"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"
)

var durationType = reflect.TypeOf(time.Duration(0))

// BindFlags registers one flag per tagged field
//
//	type LimitsOptions struct {
//	    GroupID uint64 `flag:"group,g" usage:"group id" required:"true"`
//	    At      string `flag:"at" usage:"RFC3339 time, default now"`
//	}
//
// Tags: flag (name[,short]), usage, default, required.
func BindFlags(cmd *cobra.Command, target interface{}) error {
	t, err := structType(target)
	if err != nil {
		return err
	}

	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		flagTag := field.Tag.Get("flag")
		if flagTag == "" {
			continue
		}

		name, short, _ := strings.Cut(flagTag, ",")
		if err := registerFlag(cmd, field, name, short, field.Tag.Get("usage"), field.Tag.Get("default")); err != nil {
			return fmt.Errorf("bind field %s: %w", field.Name, err)
		}
		if field.Tag.Get("required") == "true" {
			if err := cmd.MarkFlagRequired(name); err != nil {
				return err
			}
		}
	}
	return nil
}

// ParseFlags copies flag values into target, the inverse of BindFlags
func ParseFlags(cmd *cobra.Command, target interface{}) error {
	if _, err := structType(target); err != nil {
		return err
	}
	v := reflect.ValueOf(target).Elem()
	t := v.Type()

	for i := 0; i < v.NumField(); i++ {
		field := v.Field(i)
		flagTag := t.Field(i).Tag.Get("flag")
		if flagTag == "" || !field.CanSet() {
			continue
		}

		name, _, _ := strings.Cut(flagTag, ",")
		if err := setFieldValue(cmd, field, name); err != nil {
			return fmt.Errorf("parse field %s: %w", t.Field(i).Name, err)
		}
	}
	return nil
}

func structType(target interface{}) (reflect.Type, error) {
	v := reflect.ValueOf(target)
	if v.Kind() != reflect.Ptr || v.Elem().Kind() != reflect.Struct {
		return nil, fmt.Errorf("target must be a pointer to struct")
	}
	return v.Elem().Type(), nil
}

func registerFlag(cmd *cobra.Command, field reflect.StructField, name, short, usage, defaultVal string) error {
	flags := cmd.Flags()

	if field.Type == durationType {
		var def time.Duration
		if defaultVal != "" {
			d, err := time.ParseDuration(defaultVal)
			if err != nil {
				return err
			}
			def = d
		}
		flags.DurationP(name, short, def, usage)
		return nil
	}

	switch field.Type.Kind() {
	case reflect.String:
		flags.StringP(name, short, defaultVal, usage)

	case reflect.Int:
		def := 0
		if defaultVal != "" {
			n, err := strconv.Atoi(defaultVal)
			if err != nil {
				return err
			}
			def = n
		}
		flags.IntP(name, short, def, usage)

	case reflect.Uint64:
		var def uint64
		if defaultVal != "" {
			n, err := strconv.ParseUint(defaultVal, 10, 64)
			if err != nil {
				return err
			}
			def = n
		}
		flags.Uint64P(name, short, def, usage)

	case reflect.Bool:
		def := false
		if defaultVal != "" {
			b, err := strconv.ParseBool(defaultVal)
			if err != nil {
				return err
			}
			def = b
		}
		flags.BoolP(name, short, def, usage)

	case reflect.Slice:
		if field.Type.Elem().Kind() != reflect.String {
			return fmt.Errorf("unsupported slice element type: %s", field.Type.Elem().Kind())
		}
		flags.StringSliceP(name, short, nil, usage)

	default:
		return fmt.Errorf("unsupported field type: %s", field.Type.Kind())
	}
	return nil
}

func setFieldValue(cmd *cobra.Command, field reflect.Value, name string) error {
	flags := cmd.Flags()

	if field.Type() == durationType {
		val, err := flags.GetDuration(name)
		if err != nil {
			return err
		}
		field.SetInt(int64(val))
		return nil
	}

	switch field.Kind() {
	case reflect.String:
		val, err := flags.GetString(name)
		if err != nil {
			return err
		}
		field.SetString(val)

	case reflect.Int:
		val, err := flags.GetInt(name)
		if err != nil {
			return err
		}
		field.SetInt(int64(val))

	case reflect.Uint64:
		val, err := flags.GetUint64(name)
		if err != nil {
			return err
		}
		field.SetUint(val)

	case reflect.Bool:
		val, err := flags.GetBool(name)
		if err != nil {
			return err
		}
		field.SetBool(val)

	case reflect.Slice:
		val, err := flags.GetStringSlice(name)
		if err != nil {
			return err
		}
		field.Set(reflect.ValueOf(val))

	default:
		return fmt.Errorf("unsupported field type: %s", field.Kind())
	}
	return nil
}
