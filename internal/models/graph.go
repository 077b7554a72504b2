package models

// NodeType discriminates the two node variants sharing one id space.
type NodeType string

const (
	NodePost NodeType = "post"
	NodeTag  NodeType = "tag"
)

// EdgeType discriminates the two edge variants.
type EdgeType string

const (
	EdgeRef     EdgeType = "ref"
	EdgePostTag EdgeType = "post-tag"
)

// PostFields carries the attributes only post nodes have.
type PostFields struct {
	Tags    []string `json:"tags"`
	Slug    string   `json:"slug"`
	Date    string   `json:"date"`
	Author  string   `json:"author"`
	Excerpt string   `json:"excerpt"`
}

// GraphNode is either a post node (PostFields set) or a tag node (PostFields nil).
type GraphNode struct {
	ID    string   `json:"id"`
	Type  NodeType `json:"type"`
	Label string   `json:"label"`
	*PostFields
	Weight int `json:"weight"`
	Score  int `json:"score"`
}

// GraphEdge connects two nodes by id.
type GraphEdge struct {
	Type   EdgeType `json:"type"`
	Source string   `json:"source"`
	Target string   `json:"target"`
	Weight int      `json:"weight"`
	Tags   []string `json:"tags,omitempty"`
}

// GraphStats summarises a snapshot.
type GraphStats struct {
	TotalPosts   int      `json:"totalPosts"`
	TotalTags    int      `json:"totalTags"`
	RefEdges     int      `json:"refEdges"`
	PostTagEdges int      `json:"postTagEdges"`
	SkippedFiles []string `json:"skippedFiles"`
}

// GraphSnapshot is the full graph built from one corpus load.
type GraphSnapshot struct {
	Nodes []GraphNode `json:"nodes"`
	Edges []GraphEdge `json:"links"`
	Stats GraphStats  `json:"stats"`
}

// PostNodeID namespaces a post id.
func PostNodeID(id string) string { return "post:" + id }

// TagNodeID namespaces a tag name.
func TagNodeID(tag string) string { return "tag:" + tag }
