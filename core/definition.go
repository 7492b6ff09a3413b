package core

// ProcessDefinition identifies one deployed version of a process model.
type ProcessDefinition struct {
	// ID is the engine-assigned id of this definition version
	ID string `json:"id"`

	// Key is the stable identifier of the process model across versions
	Key string `json:"key"`

	Name         string `json:"name,omitempty"`
	Version      int    `json:"version,omitempty"`
	DeploymentID string `json:"deployment_id,omitempty"`
	ResourceName string `json:"resource_name,omitempty"`
}

// DecisionDefinition identifies one deployed version of a decision model.
type DecisionDefinition struct {
	ID string `json:"id"`

	Key string `json:"key"`

	Name         string `json:"name,omitempty"`
	Version      int    `json:"version,omitempty"`
	DeploymentID string `json:"deployment_id,omitempty"`
	ResourceName string `json:"resource_name,omitempty"`
}
