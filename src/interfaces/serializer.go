package interfaces

// -----------------------------------------------------------------------------

// ISerializer defines the contract for marshaling and unmarshaling data,
// keeping the subscription builders and the NATS publisher agnostic of the
// actual wire format.
type ISerializer interface {
	// Marshal converts a Go object into a byte slice.
	Marshal(obj interface{}) ([]byte, error)

	// Unmarshal converts a byte slice back into a Go object.
	Unmarshal(data []byte, obj interface{}) error
}
