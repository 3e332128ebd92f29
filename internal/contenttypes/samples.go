package contenttypes

// Built-in sample content types consulted when the content-type container
// has no entry for an item's type.
const (
	SampleHeroBanner    = "heroBanner"
	SampleProductSlider = "productSlider"
	SampleRichText      = "richText"
	SampleWebsiteLogo   = "websiteLogo"
)

func stringProperty(label string, defaultValue any, required bool) map[string]any {
	prop := map[string]any{
		"type":         "string",
		"label":        label,
		"defaultValue": defaultValue,
	}
	if required {
		prop["required"] = true
	}
	return prop
}

func sampleType(key, name, icon string, builtIn bool, schema map[string]any) map[string]any {
	entry := map[string]any{
		"type": key,
		"name": name,
		"icon": icon,
		"value": map[string]any{
			"metadata": map[string]any{
				"propertySchema": schema,
			},
		},
	}
	if builtIn {
		entry["isBuiltIn"] = true
	}
	return entry
}

func sampleRegistry() map[string]map[string]any {
	return map[string]map[string]any{
		SampleHeroBanner: sampleType(SampleHeroBanner, "Hero Banner", "🖼️", false, map[string]any{
			"title":    stringProperty("Title", "Hero Title", true),
			"subtitle": stringProperty("Subtitle", "Hero Subtitle", false),
			"imageUrl": map[string]any{
				"type":       "file",
				"extensions": []any{"jpg", "jpeg", "png"},
				"label":      "Image URL",
			},
			"ctaText": stringProperty("CTA Text", "Learn More", false),
			"ctaUrl":  stringProperty("CTA URL", "#", false),
			"slot":    stringProperty("Slot", "", false),
		}),
		SampleProductSlider: sampleType(SampleProductSlider, "Product Slider", "🛒", true, map[string]any{
			"title": stringProperty("Title", "Featured Products", true),
			"skus": map[string]any{
				"type":           "datasource",
				"label":          "Product SKUs",
				"defaultValue":   []any{},
				"datasourceType": "products-by-sku",
			},
			"autoplay": map[string]any{
				"type":         "boolean",
				"label":        "Autoplay",
				"defaultValue": true,
			},
			"slidesToShow": map[string]any{
				"type":         "number",
				"label":        "Slides to Show",
				"defaultValue": int64(4),
			},
			"slot": stringProperty("Slot", "", false),
		}),
		SampleRichText: sampleType(SampleRichText, "Rich Text Editor", "📝", false, map[string]any{
			// HTML edited with a WYSIWYG editor.
			"content": stringProperty("Content", "<p>Enter your content here...</p>", true),
			"slot":    stringProperty("Slot", "", false),
		}),
		SampleWebsiteLogo: sampleType(SampleWebsiteLogo, "Website Logo", "🖼️", false, map[string]any{
			"logoUrl": map[string]any{
				"type":         "file",
				"label":        "Logo URL",
				"defaultValue": "",
				"required":     true,
			},
			"slot": stringProperty("Slot", "", false),
		}),
	}
}
