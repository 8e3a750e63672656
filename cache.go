package sdkcommon

// instanceCache keeps resolved instances together with the order in which
// they were first stored, so teardown can run newest first.
type instanceCache struct {
	data  map[ServiceKey]any
	order []ServiceKey
}

func newInstanceCache() *instanceCache {
	return &instanceCache{
		data: make(map[ServiceKey]any),
	}
}

func (c *instanceCache) Load(key ServiceKey) (any, bool) {
	v, ok := c.data[key]
	return v, ok
}

func (c *instanceCache) Store(key ServiceKey, value any) {
	if _, exists := c.data[key]; !exists {
		c.order = append(c.order, key)
	}
	c.data[key] = value
}

func (c *instanceCache) Delete(key ServiceKey) bool {
	if _, exists := c.data[key]; !exists {
		return false
	}
	delete(c.data, key)
	c.order = removeElement(c.order, key)
	return true
}

// Keys returns cached keys in insertion order
func (c *instanceCache) Keys() []ServiceKey {
	keys := make([]ServiceKey, len(c.order))
	copy(keys, c.order)
	return keys
}

func (c *instanceCache) Clear() {
	c.data = make(map[ServiceKey]any)
	c.order = nil
}
