package cacheditem

import "strings"

// Separator joins a namespace and an item id.
const Separator = "-"

// Key identifies one cached item.
//
// A namespace that already ends with Separator is joined without a second
// one, so "form-" and "sample_id_42" give "form-sample_id_42". Entries that
// another client wrote under "form--sample_id_42" are not read back and are
// refetched on first use.
type Key struct {
	// ID is the caller-chosen item identifier (e.g. "type_subType_action").
	ID string

	// Namespace prefixes the content key (e.g. "form-").
	Namespace string

	// TTLNamespace prefixes the ttl key (e.g. "ttl_form-").
	TTLNamespace string
}

// ContentKey returns the key the payload is stored under.
//
// Example:
//
//	Key{ID: "sample_id_42", Namespace: "form-"}.ContentKey() == "form-sample_id_42"
//	Key{ID: "sample_id_42", Namespace: "course"}.ContentKey() == "course-sample_id_42"
func (k Key) ContentKey() string {
	return join(k.Namespace, k.ID)
}

// TTLKey returns the key the expiry flag is stored under.
func (k Key) TTLKey() string {
	return join(k.TTLNamespace, k.ID)
}

// String returns the content key.
func (k Key) String() string {
	return k.ContentKey()
}

// join adds the separator unless the namespace already ends with it.
func join(namespace, id string) string {
	if namespace == "" || strings.HasSuffix(namespace, Separator) {
		return namespace + id
	}
	return namespace + Separator + id
}
