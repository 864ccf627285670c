package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"reflect"
	"strconv"
	"strings"
	"sync"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
)

var hashType = reflect.TypeFor[chainhash.Hash]()

// hashTypes caches whether a record type holds chainhash.Hash fields
var hashTypes sync.Map

// checkHashString rejects anything but a full 64 digit hash.
// chainhash.NewHashFromStr zero-pads short strings, which would hide a bad payload.
func checkHashString(s string) error {
	if len(s) != chainhash.MaxHashStringSize {
		return fmt.Errorf("hash string has length %d, want %d", len(s), chainhash.MaxHashStringSize)
	}
	return nil
}

// checkJSONHashes verifies every hash field of t in the JSON document data
// before it is decoded, since chainhash.Hash.UnmarshalJSON accepts short hashes.
func checkJSONHashes(data []byte, t reflect.Type) error {
	if !holdsHash(t) {
		return nil
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var doc any
	if err := dec.Decode(&doc); err != nil {
		return err
	}
	return walkHashes(doc, t, "")
}

func holdsHash(t reflect.Type) bool {
	if v, ok := hashTypes.Load(t); ok {
		return v.(bool)
	}
	found := scanType(t, map[reflect.Type]bool{})
	hashTypes.Store(t, found)
	return found
}

func scanType(t reflect.Type, seen map[reflect.Type]bool) bool {
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t == hashType {
		return true
	}
	if seen[t] {
		return false
	}
	seen[t] = true
	switch t.Kind() {
	case reflect.Slice, reflect.Array:
		return scanType(t.Elem(), seen)
	case reflect.Struct:
		for i := 0; i < t.NumField(); i++ {
			if f := t.Field(i); f.IsExported() && scanType(f.Type, seen) {
				return true
			}
		}
	}
	return false
}

func walkHashes(v any, t reflect.Type, path string) error {
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if v == nil {
		return nil
	}
	if t == hashType {
		s, ok := v.(string)
		if !ok {
			// json.Unmarshal reports the type mismatch
			return nil
		}
		if err := checkHashString(s); err != nil {
			return fmt.Errorf("%s: %w", strings.TrimPrefix(path, "."), err)
		}
		return nil
	}
	switch t.Kind() {
	case reflect.Slice, reflect.Array:
		items, ok := v.([]any)
		if !ok {
			return nil
		}
		for i, item := range items {
			if err := walkHashes(item, t.Elem(), path+"["+strconv.Itoa(i)+"]"); err != nil {
				return err
			}
		}
	case reflect.Struct:
		obj, ok := v.(map[string]any)
		if !ok {
			return nil
		}
		for i := 0; i < t.NumField(); i++ {
			f := t.Field(i)
			if !f.IsExported() {
				continue
			}
			name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
			if name == "-" {
				continue
			}
			if name == "" {
				name = f.Name
			}
			if err := walkHashes(obj[name], f.Type, path+"."+name); err != nil {
				return err
			}
		}
	}
	return nil
}
