package domain

import (
	"fmt"
	"time"
)

// Cluster records a trained clustering model tracked in the model registry.
// At most one cluster model is active at a time.
type Cluster struct {
	ID                 ID             `bson:"_id,omitempty" json:"id"`
	MLflowRunID        string         `bson:"mlflow_run_id" json:"mlflow_run_id"`
	MLflowModelVersion int            `bson:"mlflow_model_version" json:"mlflow_model_version"`
	CreatedAt          time.Time      `bson:"created_at" json:"created_at"`
	IsActive           bool           `bson:"is_active" json:"is_active"`
	NClusters          int            `bson:"n_clusters" json:"n_clusters"`
	SilhouetteScore    float64        `bson:"silhouette_score" json:"silhouette_score"`
	ClusterProfiles    map[string]any `bson:"cluster_profiles" json:"cluster_profiles"`
}

// NewCluster returns an inactive cluster model created at now. profiles is
// copied in the shape it has after a round trip through the store.
func NewCluster(runID string, modelVersion, nClusters int, silhouette float64, profiles map[string]any, now time.Time) (*Cluster, error) {
	profiles, err := normalizeDocument("cluster", "cluster_profiles", profiles)
	if err != nil {
		return nil, err
	}
	c := &Cluster{
		MLflowRunID:        runID,
		MLflowModelVersion: modelVersion,
		CreatedAt:          NormalizeTime(now),
		NClusters:          nClusters,
		SilhouetteScore:    silhouette,
		ClusterProfiles:    profiles,
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

func (Cluster) Collection() string { return CollectionClusters }

func (c *Cluster) DocumentID() ID      { return c.ID }
func (c *Cluster) SetDocumentID(id ID) { c.ID = id }

// Validate implements Entity.
func (c *Cluster) Validate() error {
	if blank(c.MLflowRunID) {
		return invalid("cluster", "mlflow_run_id", "must not be empty")
	}
	if c.MLflowModelVersion < 0 {
		return invalid("cluster", "mlflow_model_version", "must not be negative")
	}
	if err := requireTime("cluster", "created_at", c.CreatedAt); err != nil {
		return err
	}
	if c.NClusters < 1 {
		return invalid("cluster", "n_clusters", "must be at least 1")
	}
	if !finite(c.SilhouetteScore) || c.SilhouetteScore < -1 || c.SilhouetteScore > 1 {
		return invalid("cluster", "silhouette_score", "must be within [-1, 1]")
	}
	if c.ClusterProfiles == nil {
		return invalid("cluster", "cluster_profiles", "must be set")
	}
	return nil
}

func (c Cluster) String() string {
	return fmt.Sprintf("Cluster %s (Run: %s)", c.ID, c.MLflowRunID)
}
