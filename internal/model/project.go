package model

import "time"

// FunctionCategory is a count of one function-point category with the
// requirement items that were classified into it.
type FunctionCategory struct {
	Count   int      `json:"count" yaml:"count"`
	Modules []string `json:"modules" yaml:"modules"`
}

// FunctionPointAnalysis holds the five function-point categories.
type FunctionPointAnalysis struct {
	ExternalInputs         FunctionCategory `json:"externalInputs" yaml:"externalInputs"`
	ExternalOutputs        FunctionCategory `json:"externalOutputs" yaml:"externalOutputs"`
	ExternalInquiries      FunctionCategory `json:"externalInquiries" yaml:"externalInquiries"`
	InternalLogicalFiles   FunctionCategory `json:"internalLogicalFiles" yaml:"internalLogicalFiles"`
	ExternalInterfaceFiles FunctionCategory `json:"externalInterfaceFiles" yaml:"externalInterfaceFiles"`
}

// EstimationResults is the numeric outcome of one estimate.
type EstimationResults struct {
	ProjectSize       float64 `json:"projectSize" yaml:"projectSize"`
	EstimatedKLOC     float64 `json:"estimatedKLOC" yaml:"estimatedKLOC"`
	EffortMultiplier  float64 `json:"effortMultiplier" yaml:"effortMultiplier"`
	DevelopmentEffort float64 `json:"developmentEffort" yaml:"developmentEffort"`
	DevelopmentTime   float64 `json:"developmentTime" yaml:"developmentTime"`
	Degraded          bool    `json:"degraded,omitempty" yaml:"degraded,omitempty"`
}

// Project is a listed project with its sizing and estimate.
type Project struct {
	ID                    string                `json:"id"`
	ProjectName           string                `json:"projectName"`
	DateCreated           time.Time             `json:"dateCreated"`
	FunctionPointAnalysis FunctionPointAnalysis `json:"functionPointAnalysis"`
	EstimationResults     EstimationResults     `json:"estimationResults"`
}
