// Package domain defines the core car-search types, constants, and
// validation. It acts as the validation gate at indexing and upload entry
// points.
package domain

// Car is a text-indexed car description. Vector derivation from CarInfo
// happens at write time in the indexer; nothing else ever sets a vector.
type Car struct {
	Label     string   `json:"label"`
	CarType   string   `json:"car_type"`
	FuelType  string   `json:"fuel_type"`
	CarInfo   string   `json:"car_info"`
	ImageURLs []string `json:"image_urls"`
}

// CarImage is one indexed car image. A CSV row with several image paths
// produces several CarImage records sharing the row's label and info.
type CarImage struct {
	Label    string `json:"label"`
	CarInfo  string `json:"car_info"`
	ImageURI string `json:"image_uri"`
	// Bytes holds the verified image content used as the embedding source.
	// It is never persisted in the store payload.
	Bytes []byte `json:"-"`
}

// CSVRow is one parsed row of the input CSV. Both indexers consume the same
// column set: car_label, car_info, car_type, fuel_type, image_url.
type CSVRow struct {
	Label    string
	CarInfo  string
	CarType  string
	FuelType string
	// ImageURLs is the comma-separated image_url column, already split and
	// trimmed; empty entries are dropped during parsing.
	ImageURLs []string
}

// Upload formats accepted by the image search UI.
var AllowedUploadFormats = map[string]bool{
	"jpeg": true,
	"png":  true,
}

// MaxUploadBytes is the upload size ceiling (5 MB).
const MaxUploadBytes = 5 << 20
