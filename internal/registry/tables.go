// Id tables for a sample of the blocks, items and entities the proxy
// translates, picked by hand from the vanilla data reports of each
// version. They cover 60 block states, 22 items and 22 entity
// types. Everything else resolves through the fallback policy.
//
// Legacy block keys are id<<4|meta. Legacy item keys are id<<16|damage;
// damage is only part of the key for variant items, not tool wear.
// -1 marks an entry the version does not have.

package registry

type mapping struct {
	name               string
	v1_8, v1_12, v1_14 int64
}

var blockStates = []mapping{
	{"minecraft:air", 0, 0, 0},
	{"minecraft:stone", 16, 16, 1},
	{"minecraft:granite", 17, 17, 2},
	{"minecraft:polished_granite", 18, 18, 3},
	{"minecraft:diorite", 19, 19, 4},
	{"minecraft:polished_diorite", 20, 20, 5},
	{"minecraft:andesite", 21, 21, 6},
	{"minecraft:polished_andesite", 22, 22, 7},
	{"minecraft:grass_block[snowy=false]", 32, 32, 9},
	{"minecraft:grass_block[snowy=true]", 32, 32, 8},
	{"minecraft:dirt", 48, 48, 10},
	{"minecraft:coarse_dirt", 49, 49, 11},
	{"minecraft:podzol[snowy=false]", 50, 50, 13},
	{"minecraft:cobblestone", 64, 64, 14},
	{"minecraft:oak_planks", 80, 80, 15},
	{"minecraft:spruce_planks", 81, 81, 16},
	{"minecraft:birch_planks", 82, 82, 17},
	{"minecraft:jungle_planks", 83, 83, 18},
	{"minecraft:acacia_planks", 84, 84, 19},
	{"minecraft:dark_oak_planks", 85, 85, 20},
	{"minecraft:bedrock", 112, 112, 33},
	{"minecraft:water[level=0]", 144, 144, 34},
	{"minecraft:lava[level=0]", 176, 176, 50},
	{"minecraft:sand", 192, 192, 66},
	{"minecraft:red_sand", 193, 193, 67},
	{"minecraft:gravel", 208, 208, 68},
	{"minecraft:gold_ore", 224, 224, 69},
	{"minecraft:iron_ore", 240, 240, 70},
	{"minecraft:coal_ore", 256, 256, 71},
	{"minecraft:oak_log[axis=y]", 272, 272, 73},
	{"minecraft:spruce_log[axis=y]", 273, 273, 76},
	{"minecraft:oak_leaves[distance=7,persistent=false]", 288, 288, 156},
	{"minecraft:sponge", 304, 304, 228},
	{"minecraft:glass", 320, 320, 230},
	{"minecraft:lapis_ore", 336, 336, 231},
	{"minecraft:sandstone", 384, 384, 245},
	{"minecraft:white_wool", 560, 560, 1383},
	{"minecraft:orange_wool", 561, 561, 1384},
	{"minecraft:gold_block", 656, 656, 1426},
	{"minecraft:iron_block", 672, 672, 1427},
	{"minecraft:bricks", 720, 720, 1429},
	{"minecraft:tnt[unstable=false]", 736, 736, 1431},
	{"minecraft:bookshelf", 752, 752, 1432},
	{"minecraft:mossy_cobblestone", 768, 768, 1433},
	{"minecraft:obsidian", 784, 784, 1434},
	{"minecraft:diamond_ore", 896, 896, 3354},
	{"minecraft:diamond_block", 912, 912, 3355},
	{"minecraft:crafting_table", 928, 928, 3356},
	{"minecraft:snow_block", 1280, 1280, 3416},
	{"minecraft:clay", 1312, 1312, 3418},
	{"minecraft:netherrack", 1392, 1392, 3726},
	{"minecraft:glowstone", 1424, 1424, 3739},
	{"minecraft:prismarine", 2688, 2688, 7141},
	{"minecraft:sea_lantern", 2704, 2704, 7326},
	{"minecraft:magma_block", -1, 3408, 8719},
	{"minecraft:observer[facing=south,powered=false]", -1, 3491, 8730},
	{"minecraft:white_concrete", -1, 4016, 8902},
	{"minecraft:kelp[age=0]", -1, -1, 8940},
	{"minecraft:barrel[facing=north,open=false]", -1, -1, 11135},
	{"minecraft:composter[level=0]", -1, -1, 15751},
}

var items = []mapping{
	{"minecraft:air", 0, 0, 0},
	{"minecraft:stone", 65536, 65536, 1},
	{"minecraft:granite", 65537, 65537, 2},
	{"minecraft:dirt", 196608, 196608, 9},
	{"minecraft:cobblestone", 262144, 262144, 12},
	{"minecraft:oak_planks", 327680, 327680, 13},
	{"minecraft:white_wool", 2293760, 2293760, 82},
	{"minecraft:orange_wool", 2293761, 2293761, 83},
	{"minecraft:iron_shovel", 16777216, 16777216, 514},
	{"minecraft:apple", 17039360, 17039360, 524},
	{"minecraft:bow", 17104896, 17104896, 525},
	{"minecraft:arrow", 17170432, 17170432, 526},
	{"minecraft:diamond", 17301504, 17301504, 529},
	{"minecraft:iron_ingot", 17367040, 17367040, 530},
	{"minecraft:gold_ingot", 17432576, 17432576, 531},
	{"minecraft:diamond_sword", 18087936, 18087936, 541},
	{"minecraft:stick", 18350080, 18350080, 537},
	{"minecraft:bread", 19464192, 19464192, 562},
	{"minecraft:shield", -1, 28966912, 897},
	{"minecraft:totem_of_undying", -1, 29425664, 898},
	{"minecraft:crossbow", -1, -1, 723},
	{"minecraft:barrel", -1, -1, 868},
}

var entityTypes = []mapping{
	{"minecraft:creeper", 50, 50, 11},
	{"minecraft:skeleton", 51, 51, 65},
	{"minecraft:spider", 52, 52, 72},
	{"minecraft:zombie", 54, 54, 93},
	{"minecraft:slime", 55, 55, 67},
	{"minecraft:ghast", 56, 56, 28},
	{"minecraft:enderman", 58, 58, 19},
	{"minecraft:pig", 90, 90, 54},
	{"minecraft:sheep", 91, 91, 61},
	{"minecraft:cow", 92, 92, 10},
	{"minecraft:chicken", 93, 93, 8},
	{"minecraft:squid", 94, 94, 73},
	{"minecraft:wolf", 95, 95, 92},
	{"minecraft:villager", 120, 120, 83},
	{"minecraft:horse", 100, 100, 31},
	{"minecraft:shulker", -1, 69, 62},
	{"minecraft:polar_bear", -1, 102, 57},
	{"minecraft:llama", -1, 103, 38},
	{"minecraft:parrot", -1, 105, 53},
	{"minecraft:drowned", -1, -1, 15},
	{"minecraft:fox", -1, -1, 27},
	{"minecraft:panda", -1, -1, 52},
}
