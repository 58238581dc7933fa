package gallery

import (
	"fmt"
	"sort"
	"strings"

	"github.com/entry-gallery/server/pkg/jsontree"
)

// Filename markers left by the image pipeline. The distinct-molecules marker
// is checked before the chain marker; when both somehow match, entity
// coloring wins.
const (
	markerDistinctMolecules = "_chemically_distinct_molecules"
	markerChain             = "_chain"
)

// DefaultExcludedSuffixes are the orientation variants dropped from catalogs
// unless the caller overrides the set.
var DefaultExcludedSuffixes = []string{"_side", "_top"}

// BuildCatalog flattens a gallery description into an ordered, deduplicated,
// categorized list of images. A nil description yields an empty catalog.
//
// The traversal order fixes category precedence: entry-level images first,
// then assemblies, entities, ligands, modified residues, domains, and finally
// a sweep over every "image" array anywhere in the raw tree so that images in
// unanticipated shapes are never lost. Duplicate filenames keep their first
// occurrence.
func BuildCatalog(d *Description) []CatalogImage {
	if d == nil {
		return []CatalogImage{}
	}

	var out []CatalogImage
	add := func(cat Category, title string, images []Image) {
		for _, img := range images {
			out = append(out, CatalogImage{Image: img, Category: cat, SimpleTitle: title})
		}
	}
	addTitled := func(cat Category, images []Image, title func(Image) string) {
		for _, img := range images {
			out = append(out, CatalogImage{Image: img, Category: cat, SimpleTitle: title(img)})
		}
	}

	if e := d.Entry; e != nil && e.All != nil {
		addTitled(CategoryEntry, e.All.Image, func(img Image) string {
			return depositedModelTitle(img.Filename)
		})
	}
	if v := d.Validation; v != nil && v.Geometry != nil && v.Geometry.Deposited != nil {
		add(CategoryEntry, "Geometry validation", v.Geometry.Deposited.Image)
	}
	if e := d.Entry; e != nil && e.BFactor != nil {
		add(CategoryEntry, "B-factor", e.BFactor.Image)
	}

	for _, id := range sortedKeys(d.Assembly) {
		node := d.Assembly[id]
		asmID := id
		addTitled(CategoryAssemblies, node.Image, func(img Image) string {
			return assemblyTitle(asmID, img.Filename)
		})
	}

	for _, id := range sortedKeys(d.Entity) {
		add(CategoryEntities, fmt.Sprintf("Entity %s", id), d.Entity[id].Image)
	}

	if e := d.Entry; e != nil {
		for _, id := range sortedKeys(e.Ligands) {
			add(CategoryLigands, fmt.Sprintf("Ligand environment for %s", id), e.Ligands[id].Image)
		}
		for _, id := range sortedKeys(e.ModRes) {
			add(CategoryModifiedResidues, fmt.Sprintf("Modified residue %s", id), e.ModRes[id].Image)
		}
	}

	for _, entityID := range sortedKeys(d.Entity) {
		node := d.Entity[entityID]
		for _, db := range sortedKeys(node.Database) {
			domains := node.Database[db]
			for _, domainID := range sortedKeys(domains) {
				title := fmt.Sprintf("%s %s in entity %s", db, domainID, entityID)
				add(CategoryDomains, title, domains[domainID].Image)
			}
		}
	}

	// Fallback sweep over the raw tree. Anything already collected above is
	// dropped again by the filename dedup below.
	for _, arr := range jsontree.CollectArrays(d.Raw, "image") {
		for _, v := range arr {
			if img, ok := imageFromValue(v); ok {
				out = append(out, CatalogImage{Image: img, Category: CategoryMiscellaneous})
			}
		}
	}

	return dedupeByFilename(out)
}

// ExcludeSuffixes returns the images whose filename ends with none of the
// given suffixes. The input slice is not modified.
func ExcludeSuffixes(images []CatalogImage, suffixes []string) []CatalogImage {
	out := make([]CatalogImage, 0, len(images))
	for _, img := range images {
		excluded := false
		for _, suffix := range suffixes {
			if strings.HasSuffix(img.Filename, suffix) {
				excluded = true
				break
			}
		}
		if !excluded {
			out = append(out, img)
		}
	}
	return out
}

func depositedModelTitle(filename string) string {
	if strings.Contains(filename, markerDistinctMolecules) {
		return "Deposited model (color by entity)"
	}
	if strings.Contains(filename, markerChain) {
		return "Deposited model (color by chain)"
	}
	return ""
}

func assemblyTitle(id, filename string) string {
	if strings.Contains(filename, markerDistinctMolecules) {
		return fmt.Sprintf("Assembly %s (color by entity)", id)
	}
	if strings.Contains(filename, markerChain) {
		return fmt.Sprintf("Assembly %s (color by chain)", id)
	}
	return ""
}

func dedupeByFilename(images []CatalogImage) []CatalogImage {
	seen := make(map[string]struct{}, len(images))
	out := make([]CatalogImage, 0, len(images))
	for _, img := range images {
		if _, ok := seen[img.Filename]; ok {
			continue
		}
		seen[img.Filename] = struct{}{}
		out = append(out, img)
	}
	return out
}

func imageFromValue(v interface{}) (Image, bool) {
	m, ok := v.(map[string]interface{})
	if !ok {
		return Image{}, false
	}
	filename, ok := m["filename"].(string)
	if !ok || filename == "" {
		return Image{}, false
	}
	img := Image{Filename: filename}
	if s, ok := m["alt"].(string); ok {
		img.Alt = s
	}
	if s, ok := m["description"].(string); ok {
		img.Description = s
	}
	if s, ok := m["clean_description"].(string); ok {
		img.CleanDescription = s
	}
	return img, true
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
