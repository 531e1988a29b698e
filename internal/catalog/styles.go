package catalog

const previewBase = "https://images.unsplash.com/"

func preview(photo string) string {
	return previewBase + photo + "?auto=format&fit=crop&q=80&w=400"
}

var styles = map[Mode][]Style{
	ModeInterior: {
		{
			ID:          "scandinavian",
			Name:        "北欧风",
			Description: "线条简洁、极简主义，结合浅色木材的功能之美。",
			PreviewURL:  preview("photo-1586023492125-27b2c045efd7"),
			Prompt:      "Scandinavian style interior, light wood floors, neutral tones, minimalist furniture, functional layout.",
		},
		{
			ID:          "mid-century",
			Name:        "世纪中期现代",
			Description: "标志性的 50 和 60 年代风情，拥有有机形状和几何图案。",
			PreviewURL:  preview("photo-1556228453-efd6c1ff04f6"),
			Prompt:      "Mid-century modern interior, warm wood paneling, tapered legs, organic shapes.",
		},
		{
			ID:          "bohemian",
			Name:        "波西米亚",
			Description: "质感、图案和绿植的自由混合。",
			PreviewURL:  preview("photo-1524758631624-e2822e304c36"),
			Prompt:      "Bohemian style room, layered rugs, indoor plants, rattan furniture, eclectic vibe.",
		},
		{
			ID:          "japandi",
			Name:        "日式禅意",
			Description: "日式美学与北欧功能主义的完美结合。",
			PreviewURL:  preview("photo-1615529182904-14819c35db37"),
			Prompt:      "Japandi interior, zen atmosphere, low profile furniture, bamboo accents, earthy palette.",
		},
	},
	ModeExterior: {
		{
			ID:          "modern-min",
			Name:        "现代极简别墅",
			Description: "大面积玻璃与白色混凝土的纯粹几何感。",
			PreviewURL:  preview("photo-1600585154340-be6161a56a0c"),
			Prompt:      "Ultra-modern minimalist villa, large glass facades, white concrete, clean geometric lines, architectural lighting.",
		},
		{
			ID:          "french-manor",
			Name:        "法式庄园",
			Description: "古典对称的石材外墙与宏伟入口。",
			PreviewURL:  preview("photo-1600596542815-ffad4c1539a9"),
			Prompt:      "Classical French manor architecture, stone facade, symmetrical design, slate roof, grand entrance.",
		},
		{
			ID:          "organic-wright",
			Name:        "赖特有机建筑",
			Description: "建筑与自然融为一体，水平线条与自然石材。",
			PreviewURL:  preview("photo-1518780664697-55e3ad937233"),
			Prompt:      "Organic architecture in the style of Frank Lloyd Wright, natural stone and wood, horizontal planes, cantilevered roofs.",
		},
		{
			ID:          "futurism",
			Name:        "未来主义",
			Description: "流动性的有机造型与金属外壳，极具科幻感。",
			PreviewURL:  preview("photo-1486406146926-c627a92ad1ab"),
			Prompt:      "Futuristic building design, parametric organic shapes, metallic and glass skin, integrated neon lighting.",
		},
	},
	ModeLandscape: {
		{
			ID:          "zen-stone",
			Name:        "枯山水",
			Description: "禅意的沙石组合，枫树与竹篱。",
			PreviewURL:  preview("photo-1542044896530-05d85be9b11a"),
			Prompt:      "Japanese Zen stone garden, raked sand, moss stones, maple trees, bamboo fencing.",
		},
		{
			ID:          "english-garden",
			Name:        "英式花园",
			Description: "自然生长的小径与繁茂的玫瑰花丛。",
			PreviewURL:  preview("photo-1558905730-27f912852920"),
			Prompt:      "English cottage garden, winding stone paths, lush flower borders, rustic wooden gate.",
		},
		{
			ID:          "tropical-resort",
			Name:        "热带度假风",
			Description: "无边泳池，棕榈树与木质甲板。",
			PreviewURL:  preview("photo-1584622650111-993a426fbf0a"),
			Prompt:      "Modern tropical landscape, infinity pool, palm trees, wooden pool deck, outdoor lounge area.",
		},
		{
			ID:          "modern-courtyard",
			Name:        "现代庭院",
			Description: "利落的铺装，火盆与几何绿植区。",
			PreviewURL:  preview("photo-1560185127-6ed189bf02f4"),
			Prompt:      "Sleek modern courtyard, fire pit, geometric planters, concrete slabs, architectural night lighting.",
		},
	},
}
