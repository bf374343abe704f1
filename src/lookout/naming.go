package lookout

import "strings"

// DatasetPrefix starts the name of every dataset created by the app.
const DatasetPrefix = "l4e-demo-app-"

// DatasetName is the dataset registered for a user's asset.
func DatasetName(userUID, asset string) string {
	return DatasetPrefix + userUID + "-" + asset
}

// AssetName strips the app prefix from a dataset name, leaving uid-asset.
func AssetName(datasetName string) string {
	return strings.TrimPrefix(datasetName, DatasetPrefix)
}

// ShortName drops the user uid from an asset name: abcd1234-pump1 is pump1.
func ShortName(assetName string) string {
	if _, short, ok := strings.Cut(assetName, "-"); ok {
		return short
	}
	return assetName
}

// UserUID returns the uid part of an asset name.
func UserUID(assetName string) string {
	uid, _, _ := strings.Cut(assetName, "-")
	return uid
}
