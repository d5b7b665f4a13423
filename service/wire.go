package service

// ArcPayload is the wire form of a binary relation feature record, spec
// §6's feature record kind (a): {a, b, relation}.
type ArcPayload struct {
	A        int    `json:"a"`
	B        int    `json:"b"`
	Relation string `json:"relation"`
}

// ScopePayload is the wire form of an inequality constraint record, spec
// §6's feature record kind (b): {nodes: [...]}.
type ScopePayload struct {
	Nodes []int `json:"nodes"`
}

// FactorPayload is the wire form of a factor variable record, spec §6's
// feature record kind (c): {nodes: [...]}.
type FactorPayload struct {
	Nodes []int `json:"nodes"`
}

// LabelPayload is one node's entry in the initial/completed assignment:
// its given or inferred label, and whether it is subject to inference.
type LabelPayload struct {
	Node  int    `json:"node"`
	Label string `json:"label"`
	Infer bool   `json:"infer"`
}

// QueryPayload is the common request body shared by Infer, NBest, and
// ShowGraph: a query (feature lists) plus its initial assignment.
type QueryPayload struct {
	Arcs       []ArcPayload    `json:"arcs,omitempty"`
	Scopes     []ScopePayload  `json:"scopes,omitempty"`
	Factors    []FactorPayload `json:"factors,omitempty"`
	Assignment []LabelPayload  `json:"assignment"`
}

// InferResponse is Infer's output: the completed assignment.
type InferResponse struct {
	Assignment []LabelPayload `json:"assignment"`
}

// NBestRequest adds NBest's n parameter to the common query payload.
type NBestRequest struct {
	QueryPayload
	N int `json:"n"`
}

// LabelScore is one scored label candidate.
type LabelScore struct {
	Label string  `json:"label"`
	Score float64 `json:"score"`
}

// NodeNBest is one infer node's ranked candidate list, truncated to n.
type NodeNBest struct {
	Node       int          `json:"node"`
	Candidates []LabelScore `json:"candidates"`
}

// NBestResponse is NBest's output: per infer-node ranked candidates.
type NBestResponse struct {
	Results []NodeNBest `json:"results"`
}

// GraphNode is one visualized node: its id, current label, and a color
// hint distinguishing given from inferred nodes.
type GraphNode struct {
	Id    int    `json:"id"`
	Label string `json:"label"`
	Color string `json:"color"`
}

// GraphEdge is one deduped undirected edge for visualization.
type GraphEdge struct {
	Label  string `json:"label"`
	Source int    `json:"source"`
	Target int    `json:"target"`
}

// ShowGraphResponse is ShowGraph's output.
type ShowGraphResponse struct {
	Nodes []GraphNode `json:"nodes"`
	Edges []GraphEdge `json:"edges"`
}

const (
	colorGiven    = "given"
	colorInferred = "inferred"
)
