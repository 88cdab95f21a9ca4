package catalog

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cj-bridge/internal/cj"
	"cj-bridge/internal/model"
)

func TestParseImages(t *testing.T) {
	two := []string{"http://a.com/1.jpg", "http://a.com/2.jpg"}

	tests := []struct {
		name  string
		input any
		want  []string
	}{
		{"json string", `["http://a.com/1.jpg","http://a.com/2.jpg"]`, two},
		{"comma string", "http://a.com/1.jpg, http://a.com/2.jpg", two},
		{"single url", "https://cdn.cj.com/x.png", []string{"https://cdn.cj.com/x.png"}},
		{"array", []any{"http://a.com/1.jpg", "http://a.com/2.jpg"}, two},
		{"string slice", []string{"http://a.com/1.jpg", "http://a.com/2.jpg"}, two},
		{"nested array with json string", []any{`["http://a.com/1.jpg"]`, "http://a.com/2.jpg"}, two},
		{"duplicates collapsed", []any{"http://a.com/1.jpg", "http://a.com/1.jpg", "http://a.com/2.jpg"}, two},
		{"json filters non-http", `["http://a.com/1.jpg", "ftp://x", 5, null]`, []string{"http://a.com/1.jpg"}},
		{"not a url", "not a url", []string{}},
		{"malformed json", `["http://a.com/1.jpg"`, []string{}},
		{"nil", nil, []string{}},
		{"object", map[string]any{"url": "http://a.com/1.jpg"}, []string{}},
		{"number", 42.0, []string{}},
		{"http without host dropped", "http://", []string{}},
		{"empty string", "", []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ParseImages(tt.input)
			require.NotNil(t, got)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseImages_Idempotent(t *testing.T) {
	inputs := []any{
		`["http://a.com/1.jpg","http://a.com/2.jpg","http://a.com/1.jpg"]`,
		"http://a.com/1.jpg, http://a.com/2.jpg",
		[]any{"http://a.com/3.jpg", "junk"},
	}
	for _, in := range inputs {
		once := ParseImages(in)
		assert.Equal(t, once, ParseImages(once))
	}
}

func TestParseImagesJSON(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want []string
	}{
		{"array", `["http://a.com/1.jpg"]`, []string{"http://a.com/1.jpg"}},
		{"encoded array", `"[\"http://a.com/1.jpg\"]"`, []string{"http://a.com/1.jpg"}},
		{"null", `null`, []string{}},
		{"empty", ``, []string{}},
		{"garbage", `{{`, []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseImagesJSON(json.RawMessage(tt.raw)))
		})
	}
}

func TestDedupeURLs(t *testing.T) {
	got := DedupeURLs([]string{"http://b.com/x", "http://a.com/y", "http://b.com/x", "relative/path", "::bad"})
	assert.Equal(t, []string{"http://b.com/x", "http://a.com/y"}, got)
	assert.NotNil(t, DedupeURLs(nil))
}

func TestBuildImages(t *testing.T) {
	images := BuildImages("P1", "Lamp", []string{"http://a.com/1.jpg", "http://a.com/2.jpg"})
	require.Len(t, images, 2)
	assert.Equal(t, model.Image{ID: "P1-0", URL: "http://a.com/1.jpg", Alt: "Lamp", Position: 0}, images[0])
	assert.Equal(t, model.Image{ID: "P1-1", URL: "http://a.com/2.jpg", Alt: "Lamp image 2", Position: 1}, images[1])

	// Same input, same output.
	assert.Equal(t, images, BuildImages("P1", "Lamp", []string{"http://a.com/1.jpg", "http://a.com/2.jpg"}))
}

func TestPlainText(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"plain", "Soft   cotton shirt", "Soft cotton shirt"},
		{"paragraphs", "<p>Soft cotton.</p><p>Machine washable.</p>", "Soft cotton.\nMachine washable."},
		{"entities", "<b>Tom &amp; Jerry</b>", "Tom & Jerry"},
		{"script dropped", "<div>Hi<script>alert(1)</script></div>", "Hi"},
		{"images ignored", `<img src="http://a.com/1.jpg"><br/>Size: XL`, "Size: XL"},
		{"empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, PlainText(tt.input))
		})
	}
}

func TestShortDescription(t *testing.T) {
	short := "A compact lamp."
	assert.Equal(t, short, ShortDescription(short))

	long := strings.Repeat("word ", 50)
	got := ShortDescription(long)
	assert.LessOrEqual(t, len([]rune(got)), 160)
	assert.False(t, strings.HasSuffix(got, " "))
	assert.True(t, strings.HasSuffix(got, "word"), "cut must land on a word boundary: %q", got)

	noSpaces := strings.Repeat("é", 200)
	assert.Len(t, []rune(ShortDescription(noSpaces)), 160)
}

func TestFromDetail(t *testing.T) {
	d := cj.ProductDetail{
		PID:           "P100",
		ProductNameEn: " Desk Lamp ",
		ProductSku:    "CJ-LAMP",
		ProductImage:  json.RawMessage(`"[\"http://img.cj.com/1.jpg\",\"http://img.cj.com/2.jpg\"]"`),
		ProductWeight: "250",
		CategoryID:    "C9",
		CategoryName:  "Lighting",
		SellPrice:     "3.50 -- 5.20",
		Description:   "<p>Bright LED lamp.</p>",
		CreateTime:    "1700000000000",
		Variants: []cj.ProductVariant{
			{VID: "V1", VariantNameEn: "Black", VariantSku: "CJ-LAMP-B", VariantSellPrice: "3.50", VariantWeight: "250", VariantKey: "Black"},
			{VID: "V2", VariantNameEn: "White", VariantSku: "CJ-LAMP-W", VariantSellPrice: "5.20", VariantWeight: "260"},
		},
	}

	p := FromDetail(d, model.TransformConfig{})

	assert.Equal(t, "P100", p.ID)
	assert.Equal(t, "Desk Lamp", p.Name)
	assert.True(t, p.BasePriceUSD.Equal(decimal.RequireFromString("3.5")))
	assert.True(t, p.SellPrice.Equal(decimal.RequireFromString("7")))
	assert.True(t, p.CompareAtPrice.Equal(decimal.RequireFromString("10.5")))
	assert.True(t, p.WeightKg.Equal(decimal.RequireFromString("0.25")))
	assert.Equal(t, "CN", p.SourceCountry)
	assert.Equal(t, "Bright LED lamp.", p.Description)
	assert.Equal(t, "Bright LED lamp.", p.ShortDescription)
	assert.Equal(t, "C9", p.CategoryID)
	assert.Equal(t, int64(1700000000), p.CreatedAt.Unix())

	require.Len(t, p.Images, 2)
	assert.Equal(t, "P100-1", p.Images[1].ID)

	require.Len(t, p.Variants, 2)
	assert.Equal(t, "P100-0", p.Variants[0].ID)
	assert.Equal(t, "V1", p.Variants[0].SupplierVariantID)
	assert.Equal(t, map[string]string{"variant": "Black"}, p.Variants[0].Attributes)
	assert.Nil(t, p.Variants[1].Attributes)
	assert.True(t, p.Variants[1].WeightKg.Equal(decimal.RequireFromString("0.26")))
}

func TestFromDetail_CustomMultipliers(t *testing.T) {
	cfg := model.TransformConfig{
		PriceMultiplier:     decimal.RequireFromString("3"),
		CompareAtMultiplier: decimal.RequireFromString("1.25"),
		SourceCountry:       "US",
	}
	p := FromDetail(cj.ProductDetail{PID: "P1", SellPrice: "1.111"}, cfg)

	assert.True(t, p.SellPrice.Equal(decimal.RequireFromString("3.33")))
	assert.True(t, p.CompareAtPrice.Equal(decimal.RequireFromString("4.16")))
	assert.Equal(t, "US", p.SourceCountry)
	require.Len(t, p.Variants, 1, "detail without variants gets a synthetic one")
	assert.Equal(t, "P1", p.Variants[0].SupplierVariantID)
}

func TestFromListRow(t *testing.T) {
	r := cj.ListProduct{
		PID:          "P200",
		ProductName:  json.RawMessage(`"[\"Phone Case\",\"Case\"]"`),
		ProductSku:   "CJ-CASE",
		ProductImage: json.RawMessage(`"http://img.cj.com/case.jpg"`),
		SellPrice:    "1.99",
	}

	p := FromListRow(r, model.DefaultTransformConfig())

	assert.Equal(t, "Phone Case", p.Name)
	assert.True(t, p.SellPrice.Equal(decimal.RequireFromString("3.98")))
	require.Len(t, p.Images, 1)
	require.Len(t, p.Variants, 1)
	assert.Equal(t, "P200-0", p.Variants[0].ID)
	assert.Equal(t, "http://img.cj.com/case.jpg", p.Variants[0].Image)
}

func TestFromMyProductRow(t *testing.T) {
	r := cj.MyProduct{
		ProductID: "P300",
		NameEn:    "Yoga Mat",
		BigImage:  "http://img.cj.com/mat.jpg",
		SellPrice: "8",
		VID:       "V300",
		SKU:       "CJ-MAT",
	}

	p := FromMyProductRow(r, model.DefaultTransformConfig())

	assert.Equal(t, "P300", p.ID)
	assert.Equal(t, "Yoga Mat", p.Name)
	require.Len(t, p.Images, 1)
	assert.Equal(t, "P300-0", p.Images[0].ID)
	require.Len(t, p.Variants, 1)
	assert.Equal(t, "V300", p.Variants[0].SupplierVariantID)
	assert.Equal(t, "CJ-MAT", p.Variants[0].SKU)
	assert.True(t, p.SellPrice.Equal(decimal.RequireFromString("16")))
}

func TestFlattenCategories(t *testing.T) {
	tree := []cj.CategoryFirst{
		{
			CategoryFirstID:   "1",
			CategoryFirstName: "Home",
			CategoryFirstList: []cj.CategorySecond{
				{
					CategorySecondID:   "1-1",
					CategorySecondName: "Kitchen",
					CategorySecondList: []cj.CategoryThird{
						{CategoryID: "1-1-1", CategoryName: "Knives"},
						{CategoryID: "1-1-2", CategoryName: "Pans"},
					},
				},
				{
					CategorySecondName: "Garden",
					CategorySecondList: []cj.CategoryThird{{CategoryID: "1-2-1", CategoryName: "Tools"}},
				},
			},
		},
	}

	got := FlattenCategories(tree)
	assert.Equal(t, []model.Category{
		{ID: "1-1-1", Name: "Knives", ParentID: "1-1", Level: 3},
		{ID: "1-1-2", Name: "Pans", ParentID: "1-1", Level: 3},
		{ID: "1-2-1", Name: "Tools", ParentID: "Garden", Level: 3},
	}, got)

	assert.NotNil(t, FlattenCategories(nil))
}
