// Package gallery defines the per-entry image gallery model and the catalog
// builder that flattens it.
package gallery

import "encoding/json"

// Image is a single precomputed image as described by the remote service.
// Filename doubles as the image's identity and as the snapshot name join key.
type Image struct {
	Filename         string `json:"filename"`
	Alt              string `json:"alt,omitempty"`
	Description      string `json:"description,omitempty"`
	CleanDescription string `json:"clean_description,omitempty"`
}

// Category classifies a catalog image. The set is closed; precedence when the
// same filename appears under multiple sections follows the order below.
type Category string

const (
	CategoryEntry            Category = "Entry"
	CategoryAssemblies       Category = "Assemblies"
	CategoryEntities         Category = "Entities"
	CategoryLigands          Category = "Ligands"
	CategoryModifiedResidues Category = "Modified residues"
	CategoryDomains          Category = "Domains"
	CategoryMiscellaneous    Category = "Miscellaneous"
)

// CatalogImage is an Image enriched with its assigned category and an
// optional human-readable title.
type CatalogImage struct {
	Image
	Category    Category `json:"category"`
	SimpleTitle string   `json:"simple_title,omitempty"`
}

// ImageList is the leaf node shape shared by most sections.
type ImageList struct {
	Image []Image `json:"image"`
}

// EntrySection holds whole-entry images.
type EntrySection struct {
	All     *ImageList           `json:"all,omitempty"`
	BFactor *ImageList           `json:"bfactor,omitempty"`
	Ligands map[string]ImageList `json:"ligands,omitempty"`
	ModRes  map[string]ImageList `json:"mod_res,omitempty"`
}

// ValidationSection holds validation imagery for the deposited model.
type ValidationSection struct {
	Geometry *struct {
		Deposited *ImageList `json:"deposited,omitempty"`
	} `json:"geometry,omitempty"`
}

// AssemblyNode holds per-assembly images.
type AssemblyNode struct {
	Image     []Image `json:"image"`
	Preferred bool    `json:"preferred,omitempty"`
}

// EntityNode holds per-entity images plus nested per-database domain images.
type EntityNode struct {
	Image []Image `json:"image"`
	// database name -> domain id -> images
	Database map[string]map[string]ImageList `json:"database,omitempty"`
}

// Description is the raw nested gallery document for one entry. The typed
// fields cover the known schema; Raw retains the full decoded tree so the
// fallback sweep can pick up image arrays in shapes the schema does not
// anticipate.
type Description struct {
	Entry      *EntrySection           `json:"entry,omitempty"`
	Validation *ValidationSection      `json:"validation,omitempty"`
	Assembly   map[string]AssemblyNode `json:"assembly,omitempty"`
	Entity     map[string]EntityNode   `json:"entity,omitempty"`

	ImageSuffix      []string `json:"image_suffix,omitempty"`
	LastModification string   `json:"last_modification,omitempty"`

	Raw map[string]interface{} `json:"-"`
}

// UnmarshalJSON decodes both the typed schema and the raw tree.
func (d *Description) UnmarshalJSON(data []byte) error {
	type alias Description
	var a alias
	if err := json.Unmarshal(data, &a); err != nil {
		return err
	}
	var raw map[string]interface{}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*d = Description(a)
	d.Raw = raw
	return nil
}
