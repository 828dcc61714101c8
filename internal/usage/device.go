package usage

import "github.com/getresett/resett/internal/store"

// DeviceStore adapts the shared usage_records table to the counter's Store
// interface, scoped to one device.
type DeviceStore struct {
	usage    *store.UsageStore
	deviceID string
}

func NewDeviceStore(us *store.UsageStore, deviceID string) *DeviceStore {
	return &DeviceStore{usage: us, deviceID: deviceID}
}

func (d *DeviceStore) Get(key string) (string, bool, error) {
	return d.usage.Get(d.deviceID, key)
}

func (d *DeviceStore) Put(key, value string) error {
	return d.usage.Put(d.deviceID, key, value)
}

func (d *DeviceStore) Keys() ([]string, error) {
	return d.usage.Keys(d.deviceID)
}

func (d *DeviceStore) Delete(key string) error {
	return d.usage.Delete(d.deviceID, key)
}
