// Package sdk provides a Go client for the tilesearch HTTP API: tile
// similarity search over map annotations.
//
//	client := sdk.New("http://localhost:8080", sdk.WithAPIKey("secret"))
//
//	_ = client.Annotations().Create(ctx, sdk.Annotation{
//	    ID:      "1700000000000",
//	    Dataset: "mars",
//	    GeoJSON: geojson,
//	    Zoom:    3,
//	})
//
//	tiles, _ := client.Search().Similar(ctx, sdk.SimilarRequest{
//	    AnnotationID: "1700000000000",
//	    Dataset:      "mars",
//	    Zoom:         3,
//	})
//	more, _ := client.Search().More(ctx, sdk.MoreRequest{
//	    AnnotationID: "1700000000000",
//	    ExcludeZooms: []int{3},
//	})
package sdk
