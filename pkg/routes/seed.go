package routes

import "golang.org/x/text/language"

// DefaultRoutes returns the static intercity distance table. Distances are
// road distances in km between Brazilian state capitals and nearby hubs;
// each pair is valid for travel in either direction.
func DefaultRoutes() []Route {
	return []Route{
		{Origin: "São Paulo, SP", Destination: "Rio de Janeiro, RJ", DistanceKm: 430},
		{Origin: "São Paulo, SP", Destination: "Belo Horizonte, MG", DistanceKm: 586},
		{Origin: "São Paulo, SP", Destination: "Curitiba, PR", DistanceKm: 408},
		{Origin: "São Paulo, SP", Destination: "Brasília, DF", DistanceKm: 1015},
		{Origin: "São Paulo, SP", Destination: "Campinas, SP", DistanceKm: 99},
		{Origin: "São Paulo, SP", Destination: "Porto Alegre, RS", DistanceKm: 1109},
		{Origin: "Rio de Janeiro, RJ", Destination: "Belo Horizonte, MG", DistanceKm: 434},
		{Origin: "Rio de Janeiro, RJ", Destination: "Brasília, DF", DistanceKm: 1148},
		{Origin: "Rio de Janeiro, RJ", Destination: "Vitória, ES", DistanceKm: 521},
		{Origin: "Belo Horizonte, MG", Destination: "Brasília, DF", DistanceKm: 716},
		{Origin: "Curitiba, PR", Destination: "Florianópolis, SC", DistanceKm: 300},
		{Origin: "Curitiba, PR", Destination: "Porto Alegre, RS", DistanceKm: 711},
		{Origin: "Florianópolis, SC", Destination: "Porto Alegre, RS", DistanceKm: 476},
		{Origin: "Salvador, BA", Destination: "Recife, PE", DistanceKm: 839},
		{Origin: "Salvador, BA", Destination: "Belo Horizonte, MG", DistanceKm: 1372},
		{Origin: "Fortaleza, CE", Destination: "Natal, RN", DistanceKm: 537},
		{Origin: "Fortaleza, CE", Destination: "Recife, PE", DistanceKm: 800},
	}
}

// DefaultCatalog builds the catalog over the static seed with pt-BR
// collation for place enumeration.
func DefaultCatalog() (*Catalog, error) {
	return NewCatalog(DefaultRoutes(), language.BrazilianPortuguese)
}
