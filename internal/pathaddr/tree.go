package pathaddr

import "errors"

// ErrInvalidRoot is returned when Write is given a nil root.
var ErrInvalidRoot = errors.New("write root must be a non-nil object")

// Read returns the value at path. The second result is false when any step is
// missing, an index is out of range, or a step meets a container of the wrong
// kind. Read never mutates the tree.
func Read(tree any, path Path) (any, bool) {
	cur := tree
	for _, step := range path {
		if step.IsIndex {
			arr, ok := cur.([]any)
			if !ok || step.Index >= len(arr) {
				return nil, false
			}
			cur = arr[step.Index]
			continue
		}
		m, ok := cur.(map[string]any)
		if !ok {
			return nil, false
		}
		v, ok := m[step.Key]
		if !ok {
			return nil, false
		}
		cur = v
	}
	return cur, true
}

// Write stores value at path, creating intermediate containers as needed.
//
// Missing intermediates become arrays when the following step is an index and
// objects otherwise. Arrays are padded with empty objects when descending and
// with nulls when the final step is an index. A nil value along the way is
// treated as missing. Any other value of the wrong kind yields a
// *MismatchError and the tree is not modified.
func Write(tree map[string]any, path Path, value any) error {
	if tree == nil {
		return ErrInvalidRoot
	}
	if len(path) == 0 {
		return ErrInvalidPath
	}
	if err := check(tree, path); err != nil {
		return err
	}
	set(tree, path, 0, value)
	return nil
}

// Append adds elem to the array at path. A missing array is created first.
func Append(tree map[string]any, path Path, elem any) error {
	cur, ok := Read(tree, path)
	if !ok || cur == nil {
		return Write(tree, path, []any{elem})
	}
	arr, isArr := cur.([]any)
	if !isArr {
		return &MismatchError{Path: path.String(), At: path.String(), Want: "array", Got: kindOf(cur)}
	}
	return Write(tree, path, append(arr, elem))
}

// check walks the existing part of the tree the way set would and reports the
// first conflict without mutating anything.
func check(tree map[string]any, path Path) error {
	var cur any = tree
	for i, step := range path {
		if cur == nil {
			// Everything from here on is created fresh.
			return nil
		}
		at := path[:i].String()
		if step.IsIndex {
			arr, ok := cur.([]any)
			if !ok {
				return &MismatchError{Path: path.String(), At: at, Want: "array", Got: kindOf(cur)}
			}
			if step.Index >= len(arr) {
				// The slot and everything below it will be new.
				return nil
			}
			cur = arr[step.Index]
			continue
		}
		m, ok := cur.(map[string]any)
		if !ok {
			return &MismatchError{Path: path.String(), At: at, Want: "object", Got: kindOf(cur)}
		}
		cur = m[step.Key]
	}
	return nil
}

// set performs the mutation for Write. check must have passed first.
func set(cur any, path Path, i int, value any) any {
	step := path[i]
	last := i == len(path)-1

	if step.IsIndex {
		arr, _ := cur.([]any)
		if arr == nil {
			arr = []any{}
		}
		if last {
			for len(arr) <= step.Index {
				arr = append(arr, nil)
			}
			arr[step.Index] = value
			return arr
		}
		for len(arr) < step.Index {
			arr = append(arr, map[string]any{})
		}
		if len(arr) == step.Index {
			arr = append(arr, nil)
		}
		arr[step.Index] = set(arr[step.Index], path, i+1, value)
		return arr
	}

	m, _ := cur.(map[string]any)
	if m == nil {
		m = map[string]any{}
	}
	if last {
		m[step.Key] = value
		return m
	}
	m[step.Key] = set(m[step.Key], path, i+1, value)
	return m
}
