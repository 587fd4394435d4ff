// Package domain defines the documents shared by the ingestion, prediction,
// drift-monitoring and model-registry services, together with the identifier
// type and validation rules every writer applies.
package domain

// Collection names, one per entity.
const (
	CollectionMachines    = "machines"
	CollectionReadings    = "readings"
	CollectionFailures    = "failures"
	CollectionPredictions = "predictions"
	CollectionClusters    = "clusters"
	CollectionDrift       = "drift"
	CollectionVersions    = "versions"
)

// Entity is implemented by every stored document type.
type Entity interface {
	// Collection is the name of the collection holding documents of this type.
	Collection() string
	// Validate checks field contracts. It runs before any store call.
	Validate() error
	// DocumentID returns the store identifier, NilID until assigned.
	DocumentID() ID
	// SetDocumentID assigns the store identifier.
	SetDocumentID(ID)
}

// Collections lists every collection owned by this layer.
func Collections() []string {
	return []string{
		CollectionMachines,
		CollectionReadings,
		CollectionFailures,
		CollectionPredictions,
		CollectionClusters,
		CollectionDrift,
		CollectionVersions,
	}
}
