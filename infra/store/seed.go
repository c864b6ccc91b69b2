package store

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/sailq/rakeflow/core/geo"
	"github.com/sailq/rakeflow/core/model"
)

// Seed dataset for the SAIL stockyard network. One line per loading point and
// material: stockyard, warehouse, lat, lng, point name, material, capacity
// (tons), loading cost (INR/t), demurrage (INR/day), holding cost (INR/t/day),
// product id, wagon type, wagon capacity (tons).
const seedTSV = `Bokaro	Bokaro Warehouse	23.669296	86.151115	LP-BOK-1	Electrical Steels	1914	47	2177	4	P001	BCN	58
Bokaro	Bokaro Warehouse	23.669296	86.151115	LP-BOK-2	SAIL TMT BARS	2352	49	2302	5	P002	BCN	58
Bokaro	Bokaro Warehouse	23.669296	86.151115	LP-BOK-3	Structurals	3016	51	2215	6	P003	BCN	58
Bokaro	Bokaro Warehouse	23.669296	86.151115	LP-BOK-1	Stainless Steel Products	3347	57	2519	7	P004	BCN	58
Bokaro	Bokaro Warehouse	23.669296	86.151115	LP-BOK-2	Plates	4058	57	2887	4	P005	BCN	58
Bokaro	Bokaro Warehouse	23.669296	86.151115	LP-BOK-3	Wire Rods	4401	66	2912	5	P006	BCN	58
Bhilai	Bhilai Warehouse	21.185157	81.394207	LP-BHI-1	Hot Rolled Products	1974	49	1879	4	P007	BCN	58
Bhilai	Bhilai Warehouse	21.185157	81.394207	LP-BHI-2	Pipes	2410	53	2052	5	P008	BCN	58
Bhilai	Bhilai Warehouse	21.185157	81.394207	LP-BHI-3	Plates	2847	57	2249	6	P005	BCN	58
Bhilai	Bhilai Warehouse	21.185157	81.394207	LP-BHI-1	Structurals	3483	59	2709	7	P003	BCN	58
Bhilai	Bhilai Warehouse	21.185157	81.394207	LP-BHI-2	Galvanised Products	3935	57	2973	4	P009	BCN	58
Bhilai	Bhilai Warehouse	21.185157	81.394207	LP-BHI-3	Wheels and Axles	4535	61	3298	5	P010	BCN	58
Durgapur	Durgapur Warehouse	23.54843	87.245247	LP-DUR-1	SAIL SeQR TMT Bars	2253	50	2095	4	P011	BCN	58
Durgapur	Durgapur Warehouse	23.54843	87.245247	LP-DUR-2	Wheels and Axles	2398	49	2023	5	P010	BCN	58
Durgapur	Durgapur Warehouse	23.54843	87.245247	LP-DUR-3	SAIL TMT BARS	3138	54	2595	6	P002	BCN	58
Durgapur	Durgapur Warehouse	23.54843	87.245247	LP-DUR-1	Cold Rolled Products	3448	55	2837	7	P012	BCN	58
Durgapur	Durgapur Warehouse	23.54843	87.245247	LP-DUR-2	Plates	3919	58	2794	4	P005	BCN	58
Durgapur	Durgapur Warehouse	23.54843	87.245247	LP-DUR-3	Pipes	4442	67	3125	5	P008	BCN	58
Rourkela	Rourkela Warehouse	22.210804	84.86895	LP-ROU-1	Pig Iron	2143	49	2159	4	P013	BOXN	61
Rourkela	Rourkela Warehouse	22.210804	84.86895	LP-ROU-2	Railway Products	2779	49	2311	5	P014	BOXN	61
Rourkela	Rourkela Warehouse	22.210804	84.86895	LP-ROU-3	Galvanised Products	3125	53	2473	6	P009	BCN	58
Rourkela	Rourkela Warehouse	22.210804	84.86895	LP-ROU-1	SAIL SeQR TMT Bars	3673	57	2483	7	P011	BCN	58
Rourkela	Rourkela Warehouse	22.210804	84.86895	LP-ROU-2	Stainless Steel Products	4036	63	2738	4	P004	BCN	58
Rourkela	Rourkela Warehouse	22.210804	84.86895	LP-ROU-3	Wire Rods	4773	63	3150	5	P006	BCN	58
IISCO	Burnpur Warehouse	23.673236	86.926179	LP-IIS-1	Railway Products	2212	50	2005	4	P014	BOXN	61
IISCO	Burnpur Warehouse	23.673236	86.926179	LP-IIS-2	Pig Iron	2437	49	2108	5	P013	BOXN	61
IISCO	Burnpur Warehouse	23.673236	86.926179	LP-IIS-3	Semis	3267	56	2308	6	P015	BOXN	61
IISCO	Burnpur Warehouse	23.673236	86.926179	LP-IIS-1	Structurals	3635	61	2602	7	P003	BCN	58
IISCO	Burnpur Warehouse	23.673236	86.926179	LP-IIS-2	Wire Rods	4252	64	2673	4	P006	BCN	58
IISCO	Burnpur Warehouse	23.673236	86.926179	LP-IIS-3	Stainless Steel Products	4435	62	2926	5	P004	BCN	58
Salem	Salem Warehouse	11.65511	78.03196	LP-SAL-1	Stainless Steel Products	2259	51	1985	4	P004	BCN	58
Salem	Salem Warehouse	11.65511	78.03196	LP-SAL-2	Cold Rolled Products	2412	50	2260	5	P012	BCN	58
Salem	Salem Warehouse	11.65511	78.03196	LP-SAL-3	Pig Iron	3052	52	2586	6	P013	BOXN	61
Salem	Salem Warehouse	11.65511	78.03196	LP-SAL-1	Plates	3324	55	2478	7	P005	BCN	58
Salem	Salem Warehouse	11.65511	78.03196	LP-SAL-2	Pipes	4121	59	3005	4	P008	BCN	58
Salem	Salem Warehouse	11.65511	78.03196	LP-SAL-3	Wheels and Axles	4648	66	3105	5	P010	BCN	58
Visakhapatnam	Vizag Warehouse	17.686815	83.218483	LP-VIS-1	SAIL TMT BARS	1928	45	2148	4	P002	BCN	58
Visakhapatnam	Vizag Warehouse	17.686815	83.218483	LP-VIS-2	Wheels and Axles	2669	49	2349	5	P010	BCN	58
Visakhapatnam	Vizag Warehouse	17.686815	83.218483	LP-VIS-3	Pig Iron	3253	55	2593	6	P013	BOXN	61
Visakhapatnam	Vizag Warehouse	17.686815	83.218483	LP-VIS-1	Pipes	3628	59	2457	7	P008	BCN	58
Visakhapatnam	Vizag Warehouse	17.686815	83.218483	LP-VIS-2	Hot Rolled Products	3950	63	2680	4	P007	BCN	58
Visakhapatnam	Vizag Warehouse	17.686815	83.218483	LP-VIS-3	Cold Rolled Products	4532	60	3288	5	P012	BCN	58
Chennai	Chennai Warehouse	13.063977	80.144986	LP-CHE-1	Stainless Steel Products	2267	46	2245	4	P004	BCN	58
Chennai	Chennai Warehouse	13.063977	80.144986	LP-CHE-2	SAIL SeQR TMT Bars	2620	52	2430	5	P011	BCN	58
Chennai	Chennai Warehouse	13.063977	80.144986	LP-CHE-3	Plates	3127	54	2278	6	P005	BCN	58
Chennai	Chennai Warehouse	13.063977	80.144986	LP-CHE-1	Cold Rolled Products	3491	56	2676	7	P012	BCN	58
Chennai	Chennai Warehouse	13.063977	80.144986	LP-CHE-2	Galvanised Products	4288	57	2906	4	P009	BCN	58
Chennai	Chennai Warehouse	13.063977	80.144986	LP-CHE-3	Pig Iron	4465	67	2809	5	P013	BOXN	61
Delhi	Tughlakabad Warehouse	28.5034421	77.2970508	LP-DEL-1	SAIL TMT BARS	1923	46	1843	4	P002	BCN	58
Delhi	Tughlakabad Warehouse	28.5034421	77.2970508	LP-DEL-2	Railway Products	2674	55	2417	5	P014	BOXN	61
Delhi	Tughlakabad Warehouse	28.5034421	77.2970508	LP-DEL-3	Semis	2835	53	2265	6	P015	BOXN	61
Delhi	Tughlakabad Warehouse	28.5034421	77.2970508	LP-DEL-1	Plates	3637	61	2884	7	P005	BCN	58
Delhi	Tughlakabad Warehouse	28.5034421	77.2970508	LP-DEL-2	Wire Rods	4081	59	2735	4	P006	BCN	58
Delhi	Tughlakabad Warehouse	28.5034421	77.2970508	LP-DEL-3	Structurals	4570	66	3293	5	P003	BCN	58
Kolkata	Dankuni Warehouse	22.671679	88.300209	LP-KOL-1	Wire Rods	2004	50	2024	4	P006	BCN	58
Kolkata	Dankuni Warehouse	22.671679	88.300209	LP-KOL-2	Cold Rolled Products	2760	55	2061	5	P012	BCN	58
Kolkata	Dankuni Warehouse	22.671679	88.300209	LP-KOL-3	Semis	2926	54	2232	6	P015	BOXN	61
Kolkata	Dankuni Warehouse	22.671679	88.300209	LP-KOL-1	Stainless Steel Products	3473	54	2701	7	P004	BCN	58
Kolkata	Dankuni Warehouse	22.671679	88.300209	LP-KOL-2	SAIL SeQR TMT Bars	4083	60	2901	4	P011	BCN	58
Kolkata	Dankuni Warehouse	22.671679	88.300209	LP-KOL-3	Plates	4412	60	2836	5	P005	BCN	58
Patna	Fatuha Warehouse	25.508702	85.306393	LP-PAT-1	Stainless Steel Products	2240	50	1836	4	P004	BCN	58
Patna	Fatuha Warehouse	25.508702	85.306393	LP-PAT-2	Electrical Steels	2563	51	2142	5	P001	BCN	58
Patna	Fatuha Warehouse	25.508702	85.306393	LP-PAT-3	Structurals	3142	58	2309	6	P003	BCN	58
Patna	Fatuha Warehouse	25.508702	85.306393	LP-PAT-1	Wire Rods	3576	56	2770	7	P006	BCN	58
Patna	Fatuha Warehouse	25.508702	85.306393	LP-PAT-2	SAIL TMT BARS	4278	64	2724	4	P002	BCN	58
Patna	Fatuha Warehouse	25.508702	85.306393	LP-PAT-3	Semis	4701	67	3213	5	P015	BOXN	61
Mumbai	Kalamboli Warehouse	19.02577	73.10157	LP-MUM-1	Wheels and Axles	1981	51	2010	4	P010	BCN	58
Mumbai	Kalamboli Warehouse	19.02577	73.10157	LP-MUM-2	Wire Rods	2539	48	2344	5	P006	BCN	58
Mumbai	Kalamboli Warehouse	19.02577	73.10157	LP-MUM-3	SAIL TMT BARS	3134	52	2231	6	P002	BCN	58
Mumbai	Kalamboli Warehouse	19.02577	73.10157	LP-MUM-1	Semis	3506	59	2809	7	P015	BOXN	61
Mumbai	Kalamboli Warehouse	19.02577	73.10157	LP-MUM-2	Electrical Steels	4241	58	2727	4	P001	BCN	58
Mumbai	Kalamboli Warehouse	19.02577	73.10157	LP-MUM-3	SAIL SeQR TMT Bars	4398	63	3074	5	P011	BCN	58
Vijayawada	Vijayawada Warehouse	16.515099	80.632095	LP-VIJ-1	Hot Rolled Products	1927	46	2026	4	P007	BCN	58
Vijayawada	Vijayawada Warehouse	16.515099	80.632095	LP-VIJ-2	Galvanised Products	2713	49	2025	5	P009	BCN	58
Vijayawada	Vijayawada Warehouse	16.515099	80.632095	LP-VIJ-3	Wheels and Axles	3133	51	2696	6	P010	BCN	58
Vijayawada	Vijayawada Warehouse	16.515099	80.632095	LP-VIJ-1	Pig Iron	3347	57	2485	7	P013	BOXN	61
Vijayawada	Vijayawada Warehouse	16.515099	80.632095	LP-VIJ-2	Plates	4008	64	2846	4	P005	BCN	58
Vijayawada	Vijayawada Warehouse	16.515099	80.632095	LP-VIJ-3	SAIL SeQR TMT Bars	4409	66	3262	5	P011	BCN	58
Kanpur	Panki Warehouse	26.471282	80.249001	LP-KAN-1	Structurals	2274	52	1946	4	P003	BCN	58
Kanpur	Panki Warehouse	26.471282	80.249001	LP-KAN-2	Galvanised Products	2516	55	2079	5	P009	BCN	58
Kanpur	Panki Warehouse	26.471282	80.249001	LP-KAN-3	Wheels and Axles	2897	55	2311	6	P010	BCN	58
Kanpur	Panki Warehouse	26.471282	80.249001	LP-KAN-1	SAIL SeQR TMT Bars	3795	54	2696	7	P011	BCN	58
Kanpur	Panki Warehouse	26.471282	80.249001	LP-KAN-2	Semis	4176	57	2982	4	P015	BOXN	61
Kanpur	Panki Warehouse	26.471282	80.249001	LP-KAN-3	Plates	4460	60	2825	5	P005	BCN	58
Prayagraj	Naini Warehouse	25.379194	81.877068	LP-PRA-1	Pipes	2291	46	2235	4	P008	BCN	58
Prayagraj	Naini Warehouse	25.379194	81.877068	LP-PRA-2	Hot Rolled Products	2395	49	2304	5	P007	BCN	58
Prayagraj	Naini Warehouse	25.379194	81.877068	LP-PRA-3	Cold Rolled Products	2834	54	2406	6	P012	BCN	58
Prayagraj	Naini Warehouse	25.379194	81.877068	LP-PRA-1	Semis	3361	57	2696	7	P015	BOXN	61
Prayagraj	Naini Warehouse	25.379194	81.877068	LP-PRA-2	Galvanised Products	4104	57	2917	4	P009	BCN	58
Prayagraj	Naini Warehouse	25.379194	81.877068	LP-PRA-3	Structurals	4341	66	3136	5	P003	BCN	58
Ghaziabad	Ghaziabad Warehouse	28.667856	77.449791	LP-GHA-1	Pipes	2142	50	1922	4	P008	BCN	58
Ghaziabad	Ghaziabad Warehouse	28.667856	77.449791	LP-GHA-2	SAIL SeQR TMT Bars	2435	54	2067	5	P011	BCN	58
Ghaziabad	Ghaziabad Warehouse	28.667856	77.449791	LP-GHA-3	Cold Rolled Products	3143	55	2434	6	P012	BCN	58
Ghaziabad	Ghaziabad Warehouse	28.667856	77.449791	LP-GHA-1	Railway Products	3461	55	2404	7	P014	BOXN	61
Ghaziabad	Ghaziabad Warehouse	28.667856	77.449791	LP-GHA-2	Plates	4034	58	2637	4	P005	BCN	58
Ghaziabad	Ghaziabad Warehouse	28.667856	77.449791	LP-GHA-3	Wire Rods	4575	63	3059	5	P006	BCN	58
Faridabad	Faridabad Warehouse	28.402837	77.3085626	LP-FAR-1	Plates	1945	47	2024	4	P005	BCN	58
Faridabad	Faridabad Warehouse	28.402837	77.3085626	LP-FAR-2	Galvanised Products	2726	52	2313	5	P009	BCN	58
Faridabad	Faridabad Warehouse	28.402837	77.3085626	LP-FAR-3	Railway Products	3213	51	2541	6	P014	BOXN	61
Faridabad	Faridabad Warehouse	28.402837	77.3085626	LP-FAR-1	SAIL TMT BARS	3718	58	2877	7	P002	BCN	58
Faridabad	Faridabad Warehouse	28.402837	77.3085626	LP-FAR-2	Wire Rods	4139	58	3080	4	P006	BCN	58
Faridabad	Faridabad Warehouse	28.402837	77.3085626	LP-FAR-3	Semis	4749	62	2935	5	P015	BOXN	61
Jamshedpur	Jamshedpur Warehouse	22.7925	86.18417	LP-JAM-1	SAIL TMT BARS	1944	48	2167	4	P002	BCN	58
Jamshedpur	Jamshedpur Warehouse	22.7925	86.18417	LP-JAM-2	SAIL SeQR TMT Bars	2475	51	2351	5	P011	BCN	58
Jamshedpur	Jamshedpur Warehouse	22.7925	86.18417	LP-JAM-3	Stainless Steel Products	3124	55	2458	6	P004	BCN	58
Jamshedpur	Jamshedpur Warehouse	22.7925	86.18417	LP-JAM-1	Cold Rolled Products	3550	58	2863	7	P012	BCN	58
Jamshedpur	Jamshedpur Warehouse	22.7925	86.18417	LP-JAM-2	Galvanised Products	4264	57	2647	4	P009	BCN	58
Jamshedpur	Jamshedpur Warehouse	22.7925	86.18417	LP-JAM-3	Plates	4624	66	3224	5	P005	BCN	58`

// stockyardCodes maps a stockyard name to its short code used in ids.
var stockyardCodes = map[string]string{
	"Bokaro":        "BOK",
	"Bhilai":        "BHI",
	"Durgapur":      "DUR",
	"Rourkela":      "ROU",
	"IISCO":         "IIS",
	"Salem":         "SAL",
	"Visakhapatnam": "VIS",
	"Chennai":       "CHE",
	"Delhi":         "DEL",
	"Kolkata":       "KOL",
	"Patna":         "PAT",
	"Mumbai":        "MUM",
	"Vijayawada":    "VIJ",
	"Kanpur":        "KAN",
	"Prayagraj":     "PRA",
	"Ghaziabad":     "GHA",
	"Faridabad":     "FAR",
	"Jamshedpur":    "JAM",
}

// SeedInventory parses the embedded dataset into stockyards and loading
// points. Each (point, material) row becomes one loading point record; stock
// starts at full capacity. The dataset is fixed so a parse failure is a
// programming error and panics.
func SeedInventory() ([]model.Stockyard, []model.LoadingPoint) {
	var (
		yards  []model.Stockyard
		points []model.LoadingPoint
		seen   = map[string]bool{}
	)
	for ln, line := range strings.Split(seedTSV, "\n") {
		f := strings.Split(line, "\t")
		if len(f) != 13 {
			panic(fmt.Sprintf("seed dataset line %d: want 13 fields, got %d", ln+1, len(f)))
		}
		code, ok := stockyardCodes[f[0]]
		if !ok {
			panic(fmt.Sprintf("seed dataset line %d: unknown stockyard %q", ln+1, f[0]))
		}
		syID := "SY-" + code
		if !seen[syID] {
			seen[syID] = true
			yards = append(yards, model.Stockyard{
				ID:        syID,
				Name:      f[0],
				Warehouse: f[1],
				Lat:       seedFloat(ln, f[2]),
				Lng:       seedFloat(ln, f[3]),
			})
		}
		capTons := seedFloat(ln, f[6])
		points = append(points, model.LoadingPoint{
			ID:                   f[4] + "-" + f[10],
			StockyardID:          syID,
			Name:                 f[4],
			Material:             f[5],
			CapacityTons:         capTons,
			CurrentTons:          capTons,
			LoadingCostPerTon:    seedFloat(ln, f[7]),
			DemurragePerDay:      seedFloat(ln, f[8]),
			HoldingCostPerTonDay: seedFloat(ln, f[9]),
			PreferredWagonType:   f[11],
			AvgWagonCapacityTons: seedFloat(ln, f[12]),
		})
	}
	return yards, points
}

// SeedWagonTable returns the material to wagon type mapping derived from the
// dataset: open BOXN wagons for bulk products, covered BCN for the rest.
func SeedWagonTable() model.WagonTable {
	bcn := model.WagonType{Code: "BCN", CapacityTons: 58}
	boxn := model.WagonType{Code: "BOXN", CapacityTons: 61}
	return model.WagonTable{
		"Pig Iron":                 {boxn},
		"Railway Products":         {boxn},
		"Semis":                    {boxn},
		"Electrical Steels":        {bcn},
		"SAIL TMT BARS":            {bcn},
		"SAIL SeQR TMT Bars":       {bcn},
		"Structurals":              {bcn},
		"Stainless Steel Products": {bcn},
		"Plates":                   {bcn},
		"Wire Rods":                {bcn},
		"Hot Rolled Products":      {bcn},
		"Cold Rolled Products":     {bcn},
		"Galvanised Products":      {bcn},
		"Pipes":                    {bcn},
		"Wheels and Axles":         {bcn},
	}
}

// SeedGazetteer returns the destination resolver covering the stockyard
// cities plus the major consumption markets the order book ships to. Each
// city is its own planning region.
func SeedGazetteer() *geo.Gazetteer {
	yards, _ := SeedInventory()
	places := make([]geo.Place, 0, len(yards)+8)
	for _, sy := range yards {
		places = append(places, geo.Place{Name: sy.Name, Region: sy.Name, Lat: sy.Lat, Lng: sy.Lng})
	}
	for _, p := range []geo.Place{
		{Name: "Hyderabad", Lat: 17.385044, Lng: 78.486671},
		{Name: "Nagpur", Lat: 21.145800, Lng: 79.088158},
		{Name: "Lucknow", Lat: 26.846695, Lng: 80.946166},
		{Name: "Ranchi", Lat: 23.344101, Lng: 85.309562},
		{Name: "Ahmedabad", Lat: 23.022505, Lng: 72.571362},
		{Name: "Pune", Lat: 18.520430, Lng: 73.856744},
		{Name: "Bengaluru", Lat: 12.971599, Lng: 77.594563},
		{Name: "Raipur", Lat: 21.251384, Lng: 81.629639},
	} {
		p.Region = p.Name
		places = append(places, p)
	}
	return geo.NewGazetteer(places...)
}

// SeedWagonsByRegion returns the default per-region wagon budgets. Regions
// absent from the map are unconstrained.
func SeedWagonsByRegion() map[string]int {
	budgets := make(map[string]int, len(stockyardCodes))
	for name := range stockyardCodes {
		budgets[name] = 48
	}
	// Consumption markets get a tighter allotment.
	for _, name := range []string{"Hyderabad", "Nagpur", "Lucknow", "Ranchi", "Ahmedabad", "Pune", "Bengaluru", "Raipur"} {
		budgets[name] = 32
	}
	return budgets
}

// NewSeededStore returns a MemoryStore loaded with the full dataset.
func NewSeededStore() *MemoryStore {
	s := NewMemoryStore()
	yards, points := SeedInventory()
	s.LoadInventory(yards, points, SeedWagonsByRegion())
	return s
}

func seedFloat(line int, s string) float64 {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		panic(fmt.Sprintf("seed dataset line %d: bad number %q", line+1, s))
	}
	return v
}
